package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/bmclean/internal/bookmark"
	"github.com/nao1215/bmclean/internal/document"
	"github.com/nao1215/bmclean/internal/model"
)

// ErrNoReport is returned when Execute is called without a report.
var ErrNoReport = errors.New("pipeline state has no report")

// State is the data shared by the steps of one run.
type State struct {
	// Doc is the parsed bookmark document.
	Doc *document.Document

	// Index is the bookmark index of the document as parsed.
	Index *bookmark.Index

	// Duplicates holds URLs with two or more entries.
	Duplicates *bookmark.Index

	// Outdated holds URLs whose probe returned 404.
	Outdated *bookmark.Index

	// Report is the run summary filled in by the steps.
	Report *model.CleanReport
}

// NewState creates the state for a run described by report.
func NewState(report *model.CleanReport) *State {
	return &State{Report: report}
}

// Step is one stage of a clean.
type Step interface {
	// Do executes the step. A returned error aborts the run.
	Do(ctx context.Context, state *State) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step in order and stops at the first error.
// Cancellation is checked between steps. The report duration is set even
// when a step fails.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	if state == nil || state.Report == nil {
		return ErrNoReport
	}
	defer func() {
		state.Report.Duration = time.Since(state.Report.StartedAt)
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step", "step", step.Name(), "input", state.Report.Input)

		if err := step.Do(ctx, state); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "input", state.Report.Input, "error", err)
			return err
		}
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
