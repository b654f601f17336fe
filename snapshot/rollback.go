package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RollbackResult reports what a rollback did.
type RollbackResult struct {
	Target   string `json:"target"`
	BackupID string `json:"backup_id,omitempty"`
	Restored int    `json:"restored"`
	Removed  int    `json:"removed"`
}

// Rollback restores the working set to the target snapshot. It is
// destructive: files in the captured roots that the snapshot does not
// contain are removed. Explicit approval is required; a pre-rollback
// backup snapshot is taken first unless disabled. Rolling back twice to
// the same snapshot yields the same state.
func (m *Manager) Rollback(ref string, approved, backup bool) (*RollbackResult, error) {
	if !approved {
		return nil, fmt.Errorf("rollback to %s: %w", ref, ErrApprovalRequired)
	}

	target, err := m.Get(ref)
	if err != nil {
		return nil, err
	}

	result := &RollbackResult{Target: target.ID}
	if backup {
		backupManifest, err := m.create("", "backup before rollback to "+target.ID, ScopePreRollback)
		if err != nil {
			return nil, fmt.Errorf("pre-rollback backup: %w", err)
		}
		result.BackupID = backupManifest.ID
	}

	// Remove current working-set files not present in the target.
	want := indexFiles(target)
	current, err := m.workingSet()
	if err != nil {
		return nil, err
	}
	for _, rel := range current {
		if _, keep := want[filepath.ToSlash(rel)]; keep {
			continue
		}
		if err := os.Remove(filepath.Join(m.manager.ProjectRoot(), rel)); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove %s: %w", rel, err)
		}
		result.Removed++
	}

	// Restore every captured file.
	for _, file := range target.Files {
		data, err := m.ReadFile(target.ID, file.Path)
		if err != nil {
			return nil, fmt.Errorf("read snapshot file %s: %w", file.Path, err)
		}
		dst := filepath.Join(m.manager.ProjectRoot(), filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", file.Path, err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return nil, fmt.Errorf("restore %s: %w", file.Path, err)
		}
		result.Restored++
	}

	// A snapshot taken before the seal has no spec_state.json; restoring
	// it must also clear the current sealed state.
	if _, captured := want[filepath.ToSlash(sealStateRel)]; !captured {
		statePath := filepath.Join(m.manager.ProjectRoot(), sealStateRel)
		if err := os.Remove(statePath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("clear seal state: %w", err)
		}
	}

	m.logger.Info("Rolled back to snapshot",
		slog.String("target", target.ID),
		slog.String("backup", result.BackupID),
		slog.Int("restored", result.Restored),
		slog.Int("removed", result.Removed))
	return result, nil
}
