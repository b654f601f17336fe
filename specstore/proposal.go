package specstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProposalStatus is the lifecycle status of a proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApplied  ProposalStatus = "applied"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal is a pending spec mutation: the full new entry text plus the
// diff against the current canon. Creating a proposal has no side
// effects on the store; only Apply writes.
type Proposal struct {
	ID         string         `json:"id"`
	EntryID    string         `json:"entry_id"`
	RelPath    string         `json:"rel_path"`
	OldText    string         `json:"old_text"`
	NewText    string         `json:"new_text"`
	Diff       string         `json:"diff"`
	Reason     string         `json:"reason,omitempty"`
	Citations  []string       `json:"citations,omitempty"`
	Status     ProposalStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	AppliedAt  *time.Time     `json:"applied_at,omitempty"`
	RejectedAt *time.Time     `json:"rejected_at,omitempty"`
}

// NewProposalID generates a new unique proposal id.
func NewProposalID() string {
	return "sp_" + uuid.New().String()
}

// ProposalStore persists proposals as JSON records under
// .novelaire/state/spec/proposals.
type ProposalStore struct {
	root string
}

// NewProposalStore creates a proposal store for the given project root.
func NewProposalStore(projectRoot string) *ProposalStore {
	return &ProposalStore{
		root: filepath.Join(projectRoot, ".novelaire", "state", "spec", "proposals"),
	}
}

func (ps *ProposalStore) path(id string) string {
	return filepath.Join(ps.root, id+".json")
}

// Create persists a new proposal record. It fails if the proposal id
// already exists.
func (ps *ProposalStore) Create(p *Proposal) error {
	if err := os.MkdirAll(ps.root, 0755); err != nil {
		return fmt.Errorf("create proposals directory: %w", err)
	}
	path := ps.path(p.ID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrProposalExists, p.ID)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write proposal: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store proposal: %w", err)
	}
	return nil
}

// Get retrieves a proposal by id.
func (ps *ProposalStore) Get(id string) (*Proposal, error) {
	data, err := os.ReadFile(ps.path(strings.TrimSpace(id)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("proposal %w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read proposal: %w", err)
	}
	var p Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse proposal: %w", err)
	}
	return &p, nil
}

// Update rewrites an existing proposal record in place.
func (ps *ProposalStore) Update(p *Proposal) error {
	path := ps.path(p.ID)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("proposal %w: %s", ErrNotFound, p.ID)
		}
		return fmt.Errorf("stat proposal: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write proposal: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("update proposal: %w", err)
	}
	return nil
}

// List returns all proposals sorted by creation time.
func (ps *ProposalStore) List() ([]*Proposal, error) {
	entries, err := os.ReadDir(ps.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list proposals: %w", err)
	}

	proposals := make([]*Proposal, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := ps.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // Skip records that fail to load
		}
		proposals = append(proposals, p)
	}
	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
	})
	return proposals, nil
}
