package logger

import "go.uber.org/zap"

var Log = zap.NewNop()

// Init installs the process-wide logger.
func Init(production bool) {
	if production {
		Log = zap.Must(zap.NewProduction())
		return
	}
	Log = zap.Must(zap.NewDevelopment())
}

func Sugar() *zap.SugaredLogger {
	return Log.Sugar()
}

// Sync flushes buffered entries; call it on shutdown.
func Sync() {
	_ = Log.Sync()
}
