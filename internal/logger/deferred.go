package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Deferred queues log calls until Flush replays them on the target logger.
// It keeps log lines from tearing through a spinner drawn on the same stream.
type Deferred struct {
	target Logger

	mu    sync.Mutex
	queue []func(Logger)
}

// Defer returns a Deferred logger in front of target.
func Defer(target Logger) *Deferred {
	return &Deferred{target: target}
}

func (d *Deferred) push(fn func(Logger)) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
}

// Flush writes every queued entry in order and empties the queue.
func (d *Deferred) Flush() {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range queue {
		fn(d.target)
	}
}

func (d *Deferred) Debug(msg string, fields ...zap.Field) {
	d.push(func(l Logger) { l.Debug(msg, fields...) })
}

func (d *Deferred) Info(msg string, fields ...zap.Field) {
	d.push(func(l Logger) { l.Info(msg, fields...) })
}

func (d *Deferred) Warn(msg string, fields ...zap.Field) {
	d.push(func(l Logger) { l.Warn(msg, fields...) })
}

func (d *Deferred) Error(msg string, fields ...zap.Field) {
	d.push(func(l Logger) { l.Error(msg, fields...) })
}

func (d *Deferred) Debugf(t string, args ...interface{}) {
	d.push(func(l Logger) { l.Debugf(t, args...) })
}

func (d *Deferred) Infof(t string, args ...interface{}) {
	d.push(func(l Logger) { l.Infof(t, args...) })
}

func (d *Deferred) Warnf(t string, args ...interface{}) {
	d.push(func(l Logger) { l.Warnf(t, args...) })
}

func (d *Deferred) Errorf(t string, args ...interface{}) {
	d.push(func(l Logger) { l.Errorf(t, args...) })
}

// Sync flushes the queue and syncs the target.
func (d *Deferred) Sync() error {
	d.Flush()
	return d.target.Sync()
}
