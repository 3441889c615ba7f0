package progress

import (
	"errors"
	"testing"
)

// TestWithProgressCompletes verifies the success path finalizes the task.
func TestWithProgressCompletes(t *testing.T) {
	reg := NewRegistry()

	err := WithProgress(reg, "wrapped", 0, func(report Reporter) error {
		report(50, "halfway")
		return nil
	})
	if err != nil {
		t.Fatalf("WithProgress: %v", err)
	}

	all := reg.All()
	if len(all) != 1 {
		t.Fatalf("task count = %d, want 1", len(all))
	}
	if all[0].Status != StatusCompleted || all[0].Progress != 100 {
		t.Fatalf("final task = %+v, want completed/100", all[0])
	}
}

// TestWithProgressFailsOnError verifies the error path finalizes as failed.
func TestWithProgressFailsOnError(t *testing.T) {
	reg := NewRegistry()

	err := WithProgress(reg, "wrapped", 0, func(Reporter) error {
		return errors.New("broken")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	all := reg.All()
	if all[0].Status != StatusFailed || all[0].Err != "broken" {
		t.Fatalf("final task = %+v, want failed/broken", all[0])
	}
}

// TestWithProgressFailsOnPanic verifies finalization on panic exits.
func TestWithProgressFailsOnPanic(t *testing.T) {
	reg := NewRegistry()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic must propagate")
			}
		}()
		_ = WithProgress(reg, "wrapped", 0, func(Reporter) error {
			panic("kaboom")
		})
	}()

	all := reg.All()
	if all[0].Status != StatusFailed {
		t.Fatalf("final status = %s, want failed", all[0].Status)
	}
}
