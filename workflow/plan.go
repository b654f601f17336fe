package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StepStatus represents the status of a single plan step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// IsValid returns true if the status is a known step status.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepInProgress, StepCompleted:
		return true
	default:
		return false
	}
}

// PlanStep is a single step in the session plan.
type PlanStep struct {
	Step   string     `json:"step"`
	Status StepStatus `json:"status"`
}

// Plan is the persisted session plan.
type Plan struct {
	Steps       []PlanStep `json:"steps"`
	Explanation string     `json:"explanation,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ErrMultipleInProgress is returned when a plan update would leave more
// than one step in progress.
var ErrMultipleInProgress = errors.New("plan can contain at most one in_progress step")

// ValidatePlan checks step contents and the at-most-one in_progress rule.
func ValidatePlan(steps []PlanStep) error {
	inProgress := 0
	for i, step := range steps {
		if strings.TrimSpace(step.Step) == "" {
			return fmt.Errorf("plan step %d has empty description", i)
		}
		if !step.Status.IsValid() {
			return fmt.Errorf("plan step %d has invalid status: %s", i, step.Status)
		}
		if step.Status == StepInProgress {
			inProgress++
		}
	}
	if inProgress > 1 {
		return ErrMultipleInProgress
	}
	return nil
}

const planStateFile = "plan.json"

// Plan reads the persisted session plan. A missing plan is returned as
// an empty plan, not an error.
func (m *Manager) Plan() (*Plan, error) {
	path := filepath.Join(m.StatePath(), planStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Plan{}, nil
		}
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &plan, nil
}

// SetPlan validates and persists the session plan.
func (m *Manager) SetPlan(steps []PlanStep, explanation string) error {
	if err := ValidatePlan(steps); err != nil {
		return err
	}
	plan := Plan{
		Steps:       steps,
		Explanation: strings.TrimSpace(explanation),
		UpdatedAt:   time.Now(),
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.MkdirAll(m.StatePath(), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return writeFileAtomic(filepath.Join(m.StatePath(), planStateFile), data)
}
