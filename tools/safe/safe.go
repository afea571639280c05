package safe

import (
	"NeuroQ/logger"
	"NeuroQ/tools/errs"

	"go.uber.org/zap"
)

// Call runs f and turns a panic into an internal error instead of
// unwinding the caller's goroutine.
func Call(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.ErrPanic(r)
		}
	}()
	return f()
}

// Go starts a new goroutine that recovers from panic,
// so that panics don't crash the entire program.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[safe.Go] panic recovered", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		f()
	}()
}
