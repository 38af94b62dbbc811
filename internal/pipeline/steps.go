package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/bmclean/internal/bookmark"
	"github.com/nao1215/bmclean/internal/dedupe"
	"github.com/nao1215/bmclean/internal/document"
	"github.com/nao1215/bmclean/internal/liveness"
	"github.com/nao1215/bmclean/internal/model"
	"github.com/nao1215/bmclean/internal/mutator"
)

// ErrNoDocument is returned by steps that need a parsed document when none
// is present in the state.
var ErrNoDocument = errors.New("no document parsed")

// ParseStep reads the input file named in the report.
type ParseStep struct{}

// Name returns the step name.
func (ParseStep) Name() string { return "parse" }

// Do parses state.Report.Input into state.Doc.
func (ParseStep) Do(_ context.Context, state *State) error {
	doc, err := document.ParseFile(state.Report.Input)
	if err != nil {
		return err
	}
	state.Doc = doc
	return nil
}

// IndexStep builds the bookmark index.
type IndexStep struct{}

// Name returns the step name.
func (IndexStep) Name() string { return "index" }

// Do indexes state.Doc.
func (IndexStep) Do(_ context.Context, state *State) error {
	if state.Doc == nil {
		return ErrNoDocument
	}
	state.Index = bookmark.Build(state.Doc)
	state.Report.Bookmarks = state.Index.Entries()
	state.Report.UniqueURLs = state.Index.Len()
	return nil
}

// DuplicateStep finds URLs referenced more than once.
type DuplicateStep struct {
	reporter model.Reporter
}

// NewDuplicateStep creates a DuplicateStep that reports each duplicate.
func NewDuplicateStep(reporter model.Reporter) *DuplicateStep {
	if reporter == nil {
		reporter = model.NopReporter{}
	}
	return &DuplicateStep{reporter: reporter}
}

// Name returns the step name.
func (s *DuplicateStep) Name() string { return "duplicates" }

// Do records the duplicates in the state and report.
func (s *DuplicateStep) Do(_ context.Context, state *State) error {
	if state.Index == nil {
		state.Index = bookmark.NewIndex()
	}
	state.Duplicates = dedupe.FindDuplicates(state.Index)

	for url, nodes := range state.Duplicates.All() {
		c := urlCount(state.Doc, url, nodes)
		c.SingleEntry = len(dedupe.ChooseRemovable(nodes)) == 0
		state.Report.Duplicates = append(state.Report.Duplicates, c)
		s.reporter.Report(model.Event{Kind: model.EventDuplicateFound, URL: url, Count: len(nodes)})
	}
	return nil
}

// LivenessStep probes every unique URL.
type LivenessStep struct {
	checker *liveness.Checker
}

// NewLivenessStep creates a LivenessStep using checker.
func NewLivenessStep(checker *liveness.Checker) *LivenessStep {
	if checker == nil {
		checker = liveness.NewChecker()
	}
	return &LivenessStep{checker: checker}
}

// Name returns the step name.
func (s *LivenessStep) Name() string { return "liveness" }

// Do records probe results and outdated URLs.
func (s *LivenessStep) Do(ctx context.Context, state *State) error {
	if state.Index == nil {
		state.Index = bookmark.NewIndex()
	}
	res := s.checker.Check(ctx, state.Index)

	state.Outdated = res.Outdated
	state.Report.Probes = res.Probes
	state.Report.LivenessChecked = true
	for url, nodes := range res.Outdated.All() {
		state.Report.Outdated = append(state.Report.Outdated, urlCount(state.Doc, url, nodes))
	}
	return nil
}

// RemoveDuplicatesStep collapses each duplicate to its first entry.
type RemoveDuplicatesStep struct {
	reporter model.Reporter
	logger   *slog.Logger
}

// NewRemoveDuplicatesStep creates a RemoveDuplicatesStep.
func NewRemoveDuplicatesStep(reporter model.Reporter, logger *slog.Logger) *RemoveDuplicatesStep {
	return &RemoveDuplicatesStep{reporter: reporter, logger: logger}
}

// Name returns the step name.
func (s *RemoveDuplicatesStep) Name() string { return "remove_duplicates" }

// Do detaches redundant duplicate entries.
func (s *RemoveDuplicatesStep) Do(_ context.Context, state *State) error {
	if state.Duplicates == nil || state.Duplicates.Len() == 0 {
		return nil
	}
	if state.Doc == nil {
		return ErrNoDocument
	}
	m := mutator.New(state.Doc, mutator.WithReporter(s.reporter), mutator.WithLogger(s.logger))
	state.Report.RemovedNodes += m.RemoveDuplicates(state.Duplicates)
	return nil
}

// RemoveOutdatedStep drops every entry of each outdated URL.
type RemoveOutdatedStep struct {
	reporter model.Reporter
	logger   *slog.Logger
}

// NewRemoveOutdatedStep creates a RemoveOutdatedStep.
func NewRemoveOutdatedStep(reporter model.Reporter, logger *slog.Logger) *RemoveOutdatedStep {
	return &RemoveOutdatedStep{reporter: reporter, logger: logger}
}

// Name returns the step name.
func (s *RemoveOutdatedStep) Name() string { return "remove_outdated" }

// Do detaches outdated entries.
func (s *RemoveOutdatedStep) Do(_ context.Context, state *State) error {
	if state.Outdated == nil || state.Outdated.Len() == 0 {
		return nil
	}
	if state.Doc == nil {
		return ErrNoDocument
	}
	m := mutator.New(state.Doc, mutator.WithReporter(s.reporter), mutator.WithLogger(s.logger))
	state.Report.RemovedNodes += m.RemoveOutdated(state.Outdated)
	return nil
}

// WriteStep serializes the cleaned document.
// Nothing is written when no duplicate or outdated URL was found, or when
// dryRun is set.
type WriteStep struct {
	dryRun bool
	logger *slog.Logger
}

// NewWriteStep creates a WriteStep.
func NewWriteStep(dryRun bool, logger *slog.Logger) *WriteStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteStep{dryRun: dryRun, logger: logger}
}

// Name returns the step name.
func (s *WriteStep) Name() string { return "write" }

// Do renders the tree and writes it to state.Report.Output.
func (s *WriteStep) Do(_ context.Context, state *State) error {
	state.Report.DryRun = s.dryRun
	if !state.Report.HasChanges() {
		s.logger.Info("nothing to clean", "input", state.Report.Input)
		return nil
	}
	if state.Doc == nil {
		return ErrNoDocument
	}

	data, err := state.Doc.Bytes()
	if err != nil {
		return err
	}
	state.Report.Checksum = model.Checksum(data)

	if s.dryRun {
		s.logger.Info("dry run, not writing", "output", state.Report.Output)
		return nil
	}
	if err := document.WriteBytes(state.Report.Output, data); err != nil {
		return err
	}
	state.Report.Written = true
	s.logger.Info("saved cleaned bookmarks", "output", state.Report.Output, "removed", state.Report.RemovedNodes)
	return nil
}

// urlCount summarises one index entry, titled by its first bookmark.
func urlCount(doc *document.Document, url string, nodes []document.NodeID) model.URLCount {
	c := model.URLCount{URL: url, Count: len(nodes)}
	if doc != nil && len(nodes) > 0 {
		c.Title = doc.Text(nodes[0])
	}
	return c
}

// DefaultConfig holds the settings of the standard clean pipeline.
type DefaultConfig struct {
	// Checker probes URLs. A default checker is used when nil.
	// Its probe events go to Reporter as well as to its own reporter.
	Checker *liveness.Checker

	// SkipCheck leaves out the liveness and outdated removal steps.
	SkipCheck bool

	// DryRun computes everything but never writes the output.
	DryRun bool

	// Reporter receives progress events.
	Reporter model.Reporter

	// Logger is passed to the steps that log.
	Logger *slog.Logger
}

// DefaultOption configures a DefaultConfig.
type DefaultOption func(*DefaultConfig)

// WithChecker sets the liveness checker.
func WithChecker(c *liveness.Checker) DefaultOption {
	return func(cfg *DefaultConfig) {
		cfg.Checker = c
	}
}

// WithSkipCheck disables liveness probing.
func WithSkipCheck(skip bool) DefaultOption {
	return func(cfg *DefaultConfig) {
		cfg.SkipCheck = skip
	}
}

// WithDryRun disables writing the output.
func WithDryRun(dryRun bool) DefaultOption {
	return func(cfg *DefaultConfig) {
		cfg.DryRun = dryRun
	}
}

// WithReporter sets the event sink for every step, including probes.
func WithReporter(r model.Reporter) DefaultOption {
	return func(cfg *DefaultConfig) {
		cfg.Reporter = r
	}
}

// WithStepLogger sets the logger used by the steps.
func WithStepLogger(logger *slog.Logger) DefaultOption {
	return func(cfg *DefaultConfig) {
		cfg.Logger = logger
	}
}

// Default creates the standard clean pipeline:
// parse, index, duplicates, liveness, remove duplicates, remove outdated, write.
func Default(pipelineOpts []Option, configOpts ...DefaultOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultConfig{
		Reporter: model.NopReporter{},
		Logger:   p.logger,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if cfg.Reporter == nil {
		cfg.Reporter = model.NopReporter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p.AddSteps(
		ParseStep{},
		IndexStep{},
		NewDuplicateStep(cfg.Reporter),
	)
	if !cfg.SkipCheck {
		checker := cfg.Checker
		if checker == nil {
			checker = liveness.NewChecker(liveness.WithLogger(cfg.Logger))
		}
		p.AddStep(NewLivenessStep(checker.Observed(cfg.Reporter)))
	}
	p.AddStep(NewRemoveDuplicatesStep(cfg.Reporter, cfg.Logger))
	if !cfg.SkipCheck {
		p.AddStep(NewRemoveOutdatedStep(cfg.Reporter, cfg.Logger))
	}
	p.AddStep(NewWriteStep(cfg.DryRun, cfg.Logger))

	return p
}
