package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrGateBlocked is returned when a forward mode transition is refused
// because the guarding gate's latest report is FAIL.
var ErrGateBlocked = errors.New("gate failure blocks mode transition")

// Mode represents the current authoring mode of a project.
type Mode string

const (
	// ModeBrainstorm is the open ideation mode; facts are queued for
	// backfill rather than written to canon.
	ModeBrainstorm Mode = "brainstorm"
	// ModeSpecFinalize is the canon promotion mode; backfill batches are
	// drained and applied through proposals here.
	ModeSpecFinalize Mode = "spec-finalize"
	// ModeOutline is the top-level outline authoring mode.
	ModeOutline Mode = "outline"
	// ModeFineOutline is the per-chapter fine outline mode.
	ModeFineOutline Mode = "fine-outline"
	// ModeProse is the chapter prose drafting mode.
	ModeProse Mode = "prose"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// IsValid returns true if the mode is a known authoring mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeBrainstorm, ModeSpecFinalize, ModeOutline, ModeFineOutline, ModeProse:
		return true
	default:
		return false
	}
}

// order positions modes along the forward authoring progression.
var order = map[Mode]int{
	ModeBrainstorm:   0,
	ModeSpecFinalize: 1,
	ModeOutline:      2,
	ModeFineOutline:  3,
	ModeProse:        4,
}

// CanTransitionTo returns true if the mode can transition to the target.
// Forward transitions advance one step at a time; regression back to any
// earlier mode is always allowed.
func (m Mode) CanTransitionTo(target Mode) bool {
	if !m.IsValid() || !target.IsValid() || m == target {
		return false
	}
	from, to := order[m], order[target]
	if to < from {
		return true // regression loop
	}
	return to == from+1
}

// writableDirs maps each mode to the artifact directories it may write.
// The spec/ directory never appears: canon changes go through proposals.
var writableDirs = map[Mode][]string{
	ModeBrainstorm:   {DraftsDir, RefsDir},
	ModeSpecFinalize: {DraftsDir, RefsDir},
	ModeOutline:      {OutlineDir, DraftsDir, RefsDir},
	ModeFineOutline:  {OutlineDir, DraftsDir, RefsDir},
	ModeProse:        {ChaptersDir, DraftsDir, RefsDir},
}

// CanWrite reports whether the mode may write the given project-relative
// path directly. Paths under spec/ are always denied.
func (m Mode) CanWrite(relPath string) bool {
	top := relPath
	if i := indexSeparator(relPath); i >= 0 {
		top = relPath[:i]
	}
	for _, dir := range writableDirs[m] {
		if top == dir {
			return true
		}
	}
	return false
}

// CouldHaveWritten reports whether the path was writable in this mode
// or any mode the project passed through to reach it. Artifacts in
// directories no reached mode may write are premature.
func (m Mode) CouldHaveWritten(relPath string) bool {
	rank := order[m]
	for mode, r := range order {
		if r <= rank && mode.CanWrite(relPath) {
			return true
		}
	}
	return false
}

func indexSeparator(path string) int {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' || path[i] == filepath.Separator {
			return i
		}
	}
	return -1
}

// ModeState is the persisted authoring mode record.
type ModeState struct {
	Mode      Mode      `json:"mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

const modeStateFile = "mode.json"

// CurrentMode reads the persisted mode, defaulting to brainstorm for a
// fresh project.
func (m *Manager) CurrentMode() (Mode, error) {
	path := filepath.Join(m.StatePath(), modeStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ModeBrainstorm, nil
		}
		return "", fmt.Errorf("read mode state: %w", err)
	}
	var state ModeState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", fmt.Errorf("parse mode state: %w", err)
	}
	if !state.Mode.IsValid() {
		return ModeBrainstorm, nil
	}
	return state.Mode, nil
}

// gateGuards maps each forward target mode to the gate whose latest
// persisted report must not be FAIL before entering it.
var gateGuards = map[Mode]string{
	ModeSpecFinalize: "spec",
	ModeOutline:      "spec",
	ModeFineOutline:  "outline",
	ModeProse:        "fine-outline",
}

// Decision is a recorded user override of a blocking gate.
type Decision struct {
	Mode      Mode      `json:"mode"`
	Gate      string    `json:"gate"`
	Reason    string    `json:"reason"`
	DecidedAt time.Time `json:"decided_at"`
}

const decisionsFile = "decisions.json"

// SetMode transitions the project to the target mode, enforcing the
// mode state machine. A forward transition is refused with
// ErrGateBlocked while the guarding gate's latest report is FAIL;
// OverrideMode records a decision and proceeds anyway.
func (m *Manager) SetMode(target Mode) error {
	current, err := m.validateTransition(target)
	if err != nil {
		return err
	}
	if order[target] > order[current] {
		if gateName, blocked, err := m.gateBlocks(target); err != nil {
			return err
		} else if blocked {
			return fmt.Errorf("%s -> %s: %w (%s gate failed; fix the findings or record an override)",
				current, target, ErrGateBlocked, gateName)
		}
	}
	return m.writeMode(target)
}

// OverrideMode forces a gate-blocked forward transition, recording the
// decision alongside the mode state.
func (m *Manager) OverrideMode(target Mode, reason string) error {
	if reason == "" {
		return fmt.Errorf("an override requires a reason")
	}
	if _, err := m.validateTransition(target); err != nil {
		return err
	}
	decision := Decision{
		Mode:      target,
		Gate:      gateGuards[target],
		Reason:    reason,
		DecidedAt: time.Now(),
	}
	if err := m.appendDecision(decision); err != nil {
		return err
	}
	return m.writeMode(target)
}

// Decisions returns all recorded override decisions, oldest first.
func (m *Manager) Decisions() ([]Decision, error) {
	data, err := os.ReadFile(filepath.Join(m.StatePath(), decisionsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	var decisions []Decision
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, fmt.Errorf("parse decisions: %w", err)
	}
	return decisions, nil
}

func (m *Manager) validateTransition(target Mode) (Mode, error) {
	if !target.IsValid() {
		return "", fmt.Errorf("invalid mode: %s", target)
	}
	current, err := m.CurrentMode()
	if err != nil {
		return "", err
	}
	if current != target && !current.CanTransitionTo(target) {
		return "", fmt.Errorf("invalid mode transition: %s -> %s", current, target)
	}
	return current, nil
}

// gateBlocks checks the latest persisted report of the gate guarding
// entry into target. A missing report does not block; only a FAIL does.
func (m *Manager) gateBlocks(target Mode) (string, bool, error) {
	gateName, guarded := gateGuards[target]
	if !guarded {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Join(m.StatePath(), "gates", gateName+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return gateName, false, nil
		}
		return gateName, false, fmt.Errorf("read %s gate report: %w", gateName, err)
	}
	var report struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return gateName, false, fmt.Errorf("parse %s gate report: %w", gateName, err)
	}
	return gateName, report.Result == "FAIL", nil
}

func (m *Manager) appendDecision(decision Decision) error {
	decisions, err := m.Decisions()
	if err != nil {
		return err
	}
	decisions = append(decisions, decision)
	data, err := json.MarshalIndent(decisions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal decisions: %w", err)
	}
	if err := os.MkdirAll(m.StatePath(), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return writeFileAtomic(filepath.Join(m.StatePath(), decisionsFile), data)
}

func (m *Manager) writeMode(target Mode) error {
	state := ModeState{Mode: target, UpdatedAt: time.Now()}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mode state: %w", err)
	}
	if err := os.MkdirAll(m.StatePath(), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return writeFileAtomic(filepath.Join(m.StatePath(), modeStateFile), data)
}

// writeFileAtomic writes data to path via a temp file and rename so a
// crash never leaves a half-written state file.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
