package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Driver runs one evaluation record through the step graph.
//
// The loop is single-threaded and cooperative: resolve the current step,
// invoke its handler with a clone of the record, validate the declared next
// step, commit the replacement, repeat. It yields control to the caller only
// at step boundaries, when the record is complete or parked awaiting human
// input.
type Driver struct {
	registry    *Registry
	logger      *zap.Logger
	stepTimeout time.Duration
}

// Option configures a Driver.
type Option func(*Driver)

// WithStepTimeout bounds each handler invocation with a context deadline.
// Zero disables the deadline. The wait for human feedback is a suspension,
// not a running step, so it is never subject to this timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(drv *Driver) { drv.stepTimeout = d }
}

// NewDriver creates a driver over the given registry.
func NewDriver(registry *Registry, logger *zap.Logger, opts ...Option) (*Driver, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{registry: registry, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run executes steps until the record completes or suspends.
//
// It returns the final record when the evaluation completed, or a resumable
// checkpoint when the record is awaiting human input. Running an already
// complete record is a no-op that returns it unchanged. On a handler error
// the prior record is returned alongside the error; whether the session may
// be re-run from it is reported by Resumable.
func (d *Driver) Run(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record is required", ErrConfiguration)
	}

	for {
		if rec.ProcessComplete {
			return rec, nil
		}
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		handler, err := d.registry.Lookup(rec.CurrentStep)
		if err != nil {
			return rec, err
		}

		d.logger.Debug("executing step", zap.String("step", string(rec.CurrentStep)))

		next, err := d.execute(ctx, handler, rec.Clone())
		if err != nil {
			d.logger.Error("step failed",
				zap.String("step", string(rec.CurrentStep)),
				zap.Bool("resumable", Resumable(err)),
				zap.Error(err),
			)
			return rec, err
		}

		// Completion wins over routing: the terminal step sets the flag and
		// keeps its own identifier, so no further transition ever occurs.
		if next.ProcessComplete {
			d.logger.Info("evaluation complete",
				zap.Int("messages", len(next.Messages)),
				zap.Int("reflections", next.ReflectionCounter),
			)
			return next, nil
		}

		declared, err := d.registry.Route(rec.CurrentStep, next.CurrentStep)
		if err != nil {
			return rec, err
		}
		next.CurrentStep = declared
		rec = next

		if rec.AwaitingHumanInput {
			d.logger.Info("evaluation suspended awaiting human input",
				zap.String("step", string(rec.CurrentStep)),
			)
			return rec, nil
		}
	}
}

// execute invokes one handler under the configured step deadline.
func (d *Driver) execute(ctx context.Context, handler Handler, rec *Record) (*Record, error) {
	if d.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.stepTimeout)
		defer cancel()
	}
	next, err := handler.Handle(ctx, rec)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%w: step %q returned no record", ErrConfiguration, handler.Step())
	}
	return next, nil
}
