package validation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RunInBackground runs req on its own goroutine and delivers the outcome on
// the returned channel, which is closed afterwards. A panic inside the run is
// turned into Outcome.Err.
func (o *Orchestrator) RunInBackground(ctx context.Context, req Request) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		defer func() {
			if p := recover(); p != nil {
				o.logger.Error("validation panicked", zap.Any("panic", p))
				done <- Outcome{Err: fmt.Errorf("validation panicked: %v", p)}
			}
		}()
		res, err := o.Run(ctx, req)
		done <- Outcome{Result: res, Err: err}
	}()
	return done
}
