package transaction

import (
	"time"

	"momo/internal/models"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)                {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)                         {}
func (n *NoopMetricsCollector) RecordRetry(string)                                           {}
func (n *NoopMetricsCollector) RecordTransactionVolume(models.TransactionType, int64, int64) {}
