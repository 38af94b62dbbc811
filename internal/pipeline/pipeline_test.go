package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/bmclean/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, state *State) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, state *State) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, state)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newState() *State {
	return NewState(model.NewCleanReport("bookmarks.html", "bookmarks-cleaned.html"))
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.StepCount() != 0 {
		t.Errorf("expected 0 steps, got %d", p.StepCount())
	}
	if p.logger == nil {
		t.Error("expected default logger")
	}
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "step-1"}, &mockStep{name: "step-2"}, &mockStep{name: "step-3"})

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		expected := []string{"first", "second", "third"}
		for i, name := range p.StepNames() {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		record := func(name string) *mockStep {
			return &mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *State) error {
					order = append(order, name)
					return nil
				},
			}
		}

		p := New()
		p.AddSteps(record("step-1"), record("step-2"))

		if err := p.Execute(context.Background(), newState()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "step-1" || order[1] != "step-2" {
			t.Errorf("wrong execution order: %v", order)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New()
		p.AddSteps(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *State) error {
				return expectedErr
			},
		}, second)

		err := p.Execute(context.Background(), newState())
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New()
		p.AddStep(step)

		if err := p.Execute(ctx, newState()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
	})

	t.Run("state without report is rejected", func(t *testing.T) {
		t.Parallel()

		if err := New().Execute(context.Background(), &State{}); !errors.Is(err, ErrNoReport) {
			t.Errorf("expected ErrNoReport, got %v", err)
		}
		if err := New().Execute(context.Background(), nil); !errors.Is(err, ErrNoReport) {
			t.Errorf("expected ErrNoReport, got %v", err)
		}
	})

	t.Run("records duration", func(t *testing.T) {
		t.Parallel()

		state := newState()
		p := New()
		p.AddStep(&mockStep{name: "noop"})

		if err := p.Execute(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.Report.Duration <= 0 {
			t.Error("expected positive duration")
		}
	})
}
