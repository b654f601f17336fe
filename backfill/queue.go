// Package backfill stages not-yet-canonical facts until they are
// promoted into the spec store through the proposal workflow. The queue
// is the only holding area: items never bypass propose/apply.
package backfill

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/novelaire/novelaire/observe"
	"github.com/novelaire/novelaire/specstore"
	"github.com/novelaire/novelaire/workflow"
)

// Batch size bounds for a single drain.
const (
	MinBatch = 3
	MaxBatch = 7
)

// ItemStatus is the confirmation status of a queued fact.
type ItemStatus string

const (
	StatusConfirmed    ItemStatus = "confirmed"
	StatusNeedsConfirm ItemStatus = "needs_confirm"
)

// Impact describes how far a fact reaches.
type Impact string

const (
	ImpactLocal        Impact = "local"
	ImpactCrossCutting Impact = "cross-cutting"
)

// Item is a queued canon-worthy fact awaiting promotion.
type Item struct {
	ID         string           `json:"id"`
	Fact       string           `json:"fact"`
	Domain     specstore.Domain `json:"domain"`
	Status     ItemStatus       `json:"status"`
	Impact     Impact           `json:"impact"`
	Anchors    []string         `json:"anchors,omitempty"`
	ProposalID string           `json:"proposal_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Queue errors.
var (
	// ErrNotFinalize is returned when a drain is attempted outside
	// spec-finalize mode.
	ErrNotFinalize = errors.New("backfill drain is only allowed in spec-finalize mode")
	// ErrItemNotFound is returned for unknown item ids.
	ErrItemNotFound = errors.New("backfill item not found")
)

// Queue is the durable backfill queue, persisted as a single JSON file
// with atomic replacement.
type Queue struct {
	manager *workflow.Manager
	path    string
	mu      sync.Mutex
}

// NewQueue creates a queue for the given project.
func NewQueue(manager *workflow.Manager) *Queue {
	return &Queue{
		manager: manager,
		path:    filepath.Join(manager.StatePath(), "backfill", "queue.json"),
	}
}

// Enqueue appends a fact to the queue. The domain must be valid; facts
// default to needs_confirm and local impact.
func (q *Queue) Enqueue(fact string, domain specstore.Domain, status ItemStatus, impact Impact, anchors []string) (*Item, error) {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return nil, fmt.Errorf("backfill fact is required")
	}
	if !domain.IsValid() {
		return nil, fmt.Errorf("unknown spec domain: %s", domain)
	}
	if status == "" {
		status = StatusNeedsConfirm
	}
	if status != StatusConfirmed && status != StatusNeedsConfirm {
		return nil, fmt.Errorf("invalid backfill status: %s", status)
	}
	if impact == "" {
		impact = ImpactLocal
	}
	if impact != ImpactLocal && impact != ImpactCrossCutting {
		return nil, fmt.Errorf("invalid backfill impact: %s", impact)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.load()
	if err != nil {
		return nil, err
	}
	item := &Item{
		ID:        "bf_" + uuid.New().String(),
		Fact:      fact,
		Domain:    domain,
		Status:    status,
		Impact:    impact,
		Anchors:   anchors,
		CreatedAt: time.Now(),
	}
	items = append(items, item)
	if err := q.save(items); err != nil {
		return nil, err
	}
	return item, nil
}

// List returns all queued items in enqueue order.
func (q *Queue) List() ([]*Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

// DrainBatch returns the next batch of items for promotion, between
// MinBatch and MaxBatch at a time. Draining is only permitted while the
// project is in spec-finalize mode; items stay queued until Resolve.
func (q *Queue) DrainBatch(n int) ([]*Item, error) {
	mode, err := q.manager.CurrentMode()
	if err != nil {
		return nil, err
	}
	if mode != workflow.ModeSpecFinalize {
		return nil, fmt.Errorf("%w (current mode: %s)", ErrNotFinalize, mode)
	}

	if n < MinBatch {
		n = MinBatch
	}
	if n > MaxBatch {
		n = MaxBatch
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.load()
	if err != nil {
		return nil, err
	}

	var batch []*Item
	for _, item := range items {
		if item.ProposalID != "" {
			continue // already out for promotion
		}
		batch = append(batch, item)
		if len(batch) >= n {
			break
		}
	}
	observe.BackfillDrained.Add(float64(len(batch)))
	return batch, nil
}

// MarkProposed links a drained item to the proposal that will promote
// it.
func (q *Queue) MarkProposed(itemID, proposalID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.load()
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ID == itemID {
			item.ProposalID = proposalID
			return q.save(items)
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
}

// Resolve removes every item linked to the given proposal. Called after
// the proposal is applied; this is the only way items leave the queue.
func (q *Queue) Resolve(proposalID string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.load()
	if err != nil {
		return 0, err
	}
	kept := items[:0]
	removed := 0
	for _, item := range items {
		if item.ProposalID == proposalID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, q.save(kept)
}

func (q *Queue) load() ([]*Item, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backfill queue: %w", err)
	}
	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse backfill queue: %w", err)
	}
	return items, nil
}

func (q *Queue) save(items []*Item) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0755); err != nil {
		return fmt.Errorf("create backfill directory: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backfill queue: %w", err)
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write backfill queue: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store backfill queue: %w", err)
	}
	return nil
}
