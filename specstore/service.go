package specstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/novelaire/novelaire/observe"
)

// SnapshotRef identifies a snapshot taken by the snapshot manager.
type SnapshotRef struct {
	ID    string
	Label string
}

// Snapshotter takes project snapshots. Implemented by snapshot.Manager;
// declared here so sealing doesn't import the snapshot package.
type Snapshotter interface {
	CreateSnapshot(label, reason string) (SnapshotRef, error)
}

// Service mediates all spec store mutation through the
// propose/apply/seal protocol.
type Service struct {
	store     *Store
	proposals *ProposalStore
	state     *StateStore
	snapshots Snapshotter
	logger    *slog.Logger

	projectRoot string
	mu          sync.Mutex // serializes the single mutation path
}

// NewService wires a Service for the given project root. snapshots may
// be nil, in which case Seal fails.
func NewService(projectRoot string, snapshots Snapshotter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       NewStore(projectRoot),
		proposals:   NewProposalStore(projectRoot),
		state:       NewStateStore(projectRoot),
		snapshots:   snapshots,
		logger:      logger,
		projectRoot: projectRoot,
	}
}

// Store exposes the read-only entry index.
func (s *Service) Store() *Store {
	return s.store
}

// Proposals exposes the proposal store.
func (s *Service) Proposals() *ProposalStore {
	return s.proposals
}

// SealState returns the current seal state.
func (s *Service) SealState() SealState {
	return s.state.Get()
}

// ProposeRequest describes a spec mutation to stage.
type ProposeRequest struct {
	ID        string
	Title     string
	Status    EntryStatus
	Tags      []string
	Aliases   []string
	Body      string
	Reason    string
	Citations []string
}

// Propose stages a spec mutation as a proposal. The store is not
// touched; the proposal carries the diff against current canon.
// Proposing against a sealed store is allowed (the block happens at
// Apply), matching the staging-first discipline.
func (s *Service) Propose(req ProposeRequest) (*Proposal, error) {
	id := strings.TrimSpace(req.ID)
	entry := &Entry{
		ID:      id,
		Title:   strings.TrimSpace(req.Title),
		Status:  req.Status,
		Tags:    cleanList(req.Tags),
		Aliases: cleanList(req.Aliases),
	}
	newText, err := BuildEntryText(entry, req.Body)
	if err != nil {
		return nil, err
	}
	relPath, err := EntryRelPath(id)
	if err != nil {
		return nil, err
	}

	oldText := ""
	if err := s.store.Refresh(); err != nil {
		return nil, err
	}
	if _, body, getErr := s.store.Get(id); getErr == nil {
		existing, _, _ := s.store.rawEntryText(id)
		if existing != "" {
			oldText = existing
		} else {
			oldText = body
		}
	}

	proposal := &Proposal{
		ID:        NewProposalID(),
		EntryID:   id,
		RelPath:   relPath,
		OldText:   oldText,
		NewText:   newText,
		Diff:      UnifiedDiff(relPath, oldText, newText),
		Reason:    strings.TrimSpace(req.Reason),
		Citations: cleanList(req.Citations),
		Status:    ProposalPending,
		CreatedAt: time.Now(),
	}
	if err := s.proposals.Create(proposal); err != nil {
		return nil, err
	}

	s.logger.Info("Created spec proposal",
		slog.String("proposal_id", proposal.ID),
		slog.String("entry_id", id),
		slog.String("path", relPath))
	return proposal, nil
}

// rawEntryText reads the full on-disk text of an entry, frontmatter
// included, for diffing.
func (s *Store) rawEntryText(id string) (string, string, error) {
	s.mu.RLock()
	entry, ok := s.byID[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, err := os.ReadFile(filepath.Join(s.projectRoot, filepath.FromSlash(entry.Path)))
	if err != nil {
		return "", "", err
	}
	return string(data), entry.Path, nil
}

// Apply writes an approved proposal's entry text into the store.
// It fails with ErrApprovalRequired unless approved is true, and with
// ErrSealed while the store is sealed.
func (s *Service) Apply(proposalID string, approved bool) (*Entry, error) {
	if !approved {
		return nil, fmt.Errorf("apply %s: %w", proposalID, ErrApprovalRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Get().Sealed() {
		return nil, fmt.Errorf("apply %s: %w", proposalID, ErrSealed)
	}

	proposal, err := s.proposals.Get(proposalID)
	if err != nil {
		return nil, err
	}
	switch proposal.Status {
	case ProposalApplied:
		return nil, fmt.Errorf("%w: %s", ErrProposalApplied, proposalID)
	case ProposalRejected:
		return nil, fmt.Errorf("%w: %s", ErrProposalClosed, proposalID)
	}

	target := filepath.Join(s.projectRoot, filepath.FromSlash(proposal.RelPath))
	specRoot := filepath.Join(s.projectRoot, "spec")
	if !strings.HasPrefix(target, specRoot+string(filepath.Separator)) {
		return nil, fmt.Errorf("proposal path escapes spec directory: %s", proposal.RelPath)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, fmt.Errorf("create entry directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(proposal.NewText), 0644); err != nil {
		return nil, fmt.Errorf("write entry: %w", err)
	}

	now := time.Now()
	proposal.Status = ProposalApplied
	proposal.AppliedAt = &now
	if err := s.proposals.Update(proposal); err != nil {
		return nil, err
	}

	if err := s.store.Refresh(); err != nil {
		return nil, err
	}
	entry, _, err := s.store.Get(proposal.EntryID)
	if err != nil {
		return nil, err
	}

	observe.ProposalsApplied.Inc()
	s.logger.Info("Applied spec proposal",
		slog.String("proposal_id", proposalID),
		slog.String("entry_id", entry.ID))
	return entry, nil
}

// Reject closes a pending proposal without touching the store. Applied
// proposals cannot be rejected and a rejected proposal stays rejected.
func (s *Service) Reject(proposalID string) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.proposals.Get(proposalID)
	if err != nil {
		return nil, err
	}
	switch proposal.Status {
	case ProposalApplied:
		return nil, fmt.Errorf("%w: %s", ErrProposalApplied, proposalID)
	case ProposalRejected:
		return nil, fmt.Errorf("%w: %s", ErrProposalClosed, proposalID)
	}

	now := time.Now()
	proposal.Status = ProposalRejected
	proposal.RejectedAt = &now
	if err := s.proposals.Update(proposal); err != nil {
		return nil, err
	}

	s.logger.Info("Rejected spec proposal",
		slog.String("proposal_id", proposalID),
		slog.String("entry_id", proposal.EntryID))
	return proposal, nil
}

// Seal snapshots the project under a version label and marks the store
// read-only. Sealing requires explicit approval and fails with
// ErrAlreadySealed on a sealed store.
func (s *Service) Seal(label string, approved bool) (SnapshotRef, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return SnapshotRef{}, fmt.Errorf("seal label is required")
	}
	if !approved {
		return SnapshotRef{}, fmt.Errorf("seal: %w", ErrApprovalRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state.Get()
	if state.Sealed() {
		return SnapshotRef{}, fmt.Errorf("%w (label %s)", ErrAlreadySealed, state.Label)
	}
	if s.snapshots == nil {
		return SnapshotRef{}, fmt.Errorf("seal: no snapshot backend configured")
	}

	ref, err := s.snapshots.CreateSnapshot(label, "spec seal "+label)
	if err != nil {
		return SnapshotRef{}, fmt.Errorf("seal snapshot: %w", err)
	}

	now := time.Now()
	if err := s.state.Set(SealState{Status: SealSealed, Label: label, SealedAt: &now}); err != nil {
		return SnapshotRef{}, err
	}

	s.logger.Info("Sealed spec store",
		slog.String("label", label),
		slog.String("snapshot", ref.ID))
	return ref, nil
}

func cleanList(raw []string) []string {
	var out []string
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
