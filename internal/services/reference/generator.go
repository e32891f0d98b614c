// Package reference generates external transaction references.
package reference

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	prefix       = "TXN"
	suffixLength = 5
	alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator produces references of the form TXN-<base36 time>-<5 random chars>.
// The time component is strictly increasing within a process.
type Generator struct {
	last atomic.Int64
	now  func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

func (g *Generator) Next() string {
	ts := g.tick()
	return prefix + "-" + strings.ToUpper(strconv.FormatInt(ts, 36)) + "-" + randomSuffix()
}

// tick returns the current UnixNano, bumped past the last value handed out.
func (g *Generator) tick() int64 {
	for {
		last := g.last.Load()
		next := g.now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

func randomSuffix() string {
	radix := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, suffixLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			// crypto/rand only fails when the OS source is unavailable.
			panic("reference: reading random source: " + err.Error())
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}
