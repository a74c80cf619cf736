package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/linkmatch/internal/model"
)

// ErrNotStarted is returned by Execute when the context ended before the
// first step ran. The extraction passed to Execute is left untouched and
// must not be reported as a result.
var ErrNotStarted = errors.New("pipeline not started")

// Step is one stage applied to an extraction.
//
// Steps share a single *model.Extraction and run strictly in the order they
// were added, so a later step sees everything an earlier step recorded. The
// extract step fills in links, status and body digest; the history step
// persists the finished record. A step must not keep the extraction after
// Do returns.
type Step interface {
	// Do runs the step. A returned error is logged by the Pipeline; failures
	// of the extraction itself are recorded in the Extraction instead.
	Do(ctx context.Context, extraction *model.Extraction) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in the order they were added.
//
// A Pipeline is built for one source and is not safe for concurrent use.
// The batch processor creates a fresh Pipeline per source through its
// factory, so steps holding per-source state need no locking.
type Pipeline struct {
	// steps run in insertion order.
	steps []Step

	// logger receives step progress at Debug and step errors at Error.
	logger *slog.Logger

	// continueOnError keeps running later steps after a step error. The
	// first error is still returned from Execute. With it unset, Execute
	// stops at the first failing step.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing later steps after a step error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps against extraction. Cancellation is checked
// between steps. It returns the context error on cancellation and, unless
// WithContinueOnError is set, the first step error.
//
// If ctx has ended before the first step, the error wraps both
// ErrNotStarted and the context error.
func (p *Pipeline) Execute(ctx context.Context, extraction *model.Extraction) error {
	var firstErr error
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "source", extraction.Source, "reason", err)
			if i == 0 {
				return fmt.Errorf("%w: %w", ErrNotStarted, err)
			}
			return err
		}

		p.logger.Debug("executing step", "step", step.Name(), "source", extraction.Source)
		if err := step.Do(ctx, extraction); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "source", extraction.Source, "error", err)
			if !p.continueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
