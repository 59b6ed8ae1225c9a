package dataset

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Profiler logs the start and the elapsed time of named calls. Each call gets
// its own id so that concurrent calls can be told apart in the log.
type Profiler struct {
	logger *zap.Logger
	calls  atomic.Int64
}

// NewProfiler returns a profiler logging to logger. A nil logger discards.
func NewProfiler(logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{logger: logger}
}

// Start logs the start of fn and returns the function that logs its end.
//
//	done := p.Start("normalize", zap.String("file", path))
//	defer done()
func (p *Profiler) Start(fn string, fields ...zap.Field) (done func()) {
	id := p.calls.Add(1) - 1
	l := p.logger.With(append([]zap.Field{zap.String("function", fn), zap.Int64("call", id)}, fields...)...)
	l.Info("start")
	begin := time.Now()
	return func() {
		l.Info("finished", zap.Duration("elapsed", time.Since(begin)))
	}
}

// Calls returns the number of calls started so far.
func (p *Profiler) Calls() int64 { return p.calls.Load() }
