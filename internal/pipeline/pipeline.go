package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/picase/internal/idp"
	"github.com/nao1215/picase/internal/model"
)

// Step defines the interface that all aggregation steps must implement.
// Steps are executed in sequence, each receiving the loaded documents and
// the record built by the previous steps.
type Step interface {
	// Do executes the step.
	// Returns an error only when aggregation cannot continue; gaps in the
	// documents are left blank or recorded as data-quality issues.
	Do(ctx context.Context, docs *idp.Documents, record *model.CaseRecord) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool

	// now returns the current time. Tests replace it with a fixed clock.
	now func() time.Time

	// newID returns a new report id.
	newID func() string
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and skipped.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithClock sets the function used to read the current time. It stamps the
// record and drives statute of limitations reminders.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator sets the function used to create report ids.
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
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
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// Cancellation is checked before each step.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete.
func (p *Pipeline) Execute(ctx context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"case", record.CaseID,
		)

		if err := step.Do(ctx, docs, record); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"case", record.CaseID,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"case", record.CaseID,
		)
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

// Default creates a pipeline with every aggregation step in order.
func Default(opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		&DocumentsStep{newID: p.newID},
		&PlaintiffStep{},
		&DefendantStep{},
		&AccidentStep{},
		&InjuriesStep{},
		&BillsStep{},
		&CoverageStep{},
		&LiabilityStep{},
		&ThresholdStep{},
		&ValueStep{},
		&ActionsStep{now: p.now},
		&QualityStep{logger: p.logger},
	)
	return p
}

// Aggregate loads the case folder dir and runs the default pipeline on it.
// Loader failures are returned as *idp.InputError.
func Aggregate(ctx context.Context, dir string, opts ...Option) (*model.CaseRecord, error) {
	p := Default(opts...)

	docs, err := idp.NewLoader(idp.WithLogger(p.logger)).Load(ctx, dir)
	if err != nil {
		return nil, err
	}

	record := model.NewCaseRecord(docs.CaseID, p.now())
	if err := p.Execute(ctx, docs, record); err != nil {
		return nil, err
	}
	return record, nil
}
