package workflow

import (
	"errors"
	"testing"
)

func TestValidatePlan(t *testing.T) {
	t.Run("accepts one in_progress step", func(t *testing.T) {
		steps := []PlanStep{
			{Step: "outline act one", Status: StepCompleted},
			{Step: "draft chapter one", Status: StepInProgress},
			{Step: "draft chapter two", Status: StepPending},
		}
		if err := ValidatePlan(steps); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects two in_progress steps", func(t *testing.T) {
		steps := []PlanStep{
			{Step: "draft chapter one", Status: StepInProgress},
			{Step: "draft chapter two", Status: StepInProgress},
		}
		err := ValidatePlan(steps)
		if !errors.Is(err, ErrMultipleInProgress) {
			t.Errorf("expected ErrMultipleInProgress, got %v", err)
		}
	})

	t.Run("rejects empty descriptions", func(t *testing.T) {
		if err := ValidatePlan([]PlanStep{{Step: "  ", Status: StepPending}}); err == nil {
			t.Error("expected error for empty step")
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		if err := ValidatePlan([]PlanStep{{Step: "draft", Status: "paused"}}); err == nil {
			t.Error("expected error for unknown status")
		}
	})
}

func TestPlanPersistence(t *testing.T) {
	m := NewManager(t.TempDir())

	t.Run("missing plan reads as empty", func(t *testing.T) {
		plan, err := m.Plan()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.Steps) != 0 {
			t.Errorf("expected empty plan, got %d steps", len(plan.Steps))
		}
	})

	t.Run("set and read back", func(t *testing.T) {
		steps := []PlanStep{
			{Step: "brainstorm premise", Status: StepInProgress},
			{Step: "finalize spec", Status: StepPending},
		}
		if err := m.SetPlan(steps, "session start"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		plan, err := m.Plan()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.Steps) != 2 {
			t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
		}
		if plan.Steps[0].Status != StepInProgress {
			t.Errorf("expected in_progress, got %s", plan.Steps[0].Status)
		}
		if plan.Explanation != "session start" {
			t.Errorf("unexpected explanation: %s", plan.Explanation)
		}
	})

	t.Run("invalid plan is not persisted", func(t *testing.T) {
		bad := []PlanStep{
			{Step: "a", Status: StepInProgress},
			{Step: "b", Status: StepInProgress},
		}
		if err := m.SetPlan(bad, ""); err == nil {
			t.Fatal("expected validation error")
		}
		plan, _ := m.Plan()
		if len(plan.Steps) != 2 || plan.Steps[0].Step != "brainstorm premise" {
			t.Error("rejected plan should leave the previous plan intact")
		}
	})
}
