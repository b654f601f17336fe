package specstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SealStatus is the mutability status of the spec store.
type SealStatus string

const (
	SealOpen   SealStatus = "open"
	SealSealed SealStatus = "sealed"
)

// SealState records whether the store is sealed, and under what label.
type SealState struct {
	Status   SealStatus `json:"status"`
	Label    string     `json:"label,omitempty"`
	SealedAt *time.Time `json:"sealed_at,omitempty"`
}

// Sealed reports whether the store is sealed.
func (s SealState) Sealed() bool {
	return s.Status == SealSealed
}

// StateStore persists the seal state at .novelaire/state/spec_state.json.
type StateStore struct {
	path string
}

// NewStateStore creates a seal state store for the given project root.
func NewStateStore(projectRoot string) *StateStore {
	return &StateStore{
		path: filepath.Join(projectRoot, ".novelaire", "state", "spec_state.json"),
	}
}

// Get reads the seal state. A missing or unreadable state file is
// treated as open.
func (ss *StateStore) Get() SealState {
	data, err := os.ReadFile(ss.path)
	if err != nil {
		return SealState{Status: SealOpen}
	}
	var state SealState
	if err := json.Unmarshal(data, &state); err != nil {
		return SealState{Status: SealOpen}
	}
	if state.Status != SealSealed {
		state.Status = SealOpen
	}
	return state
}

// Set persists the seal state atomically.
func (ss *StateStore) Set(state SealState) error {
	if err := os.MkdirAll(filepath.Dir(ss.path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seal state: %w", err)
	}
	tmp := ss.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write seal state: %w", err)
	}
	if err := os.Rename(tmp, ss.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store seal state: %w", err)
	}
	return nil
}
