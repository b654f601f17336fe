package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Environment variables overriding the models.json lookup paths.
const (
	EnvProjectModelsPath = "NOVELAIRE_PROJECT_MODELS_PATH"
	EnvGlobalModelsPath  = "NOVELAIRE_GLOBAL_MODELS_PATH"
)

// ModelRole names a workload that resolves to a model profile.
type ModelRole string

// Model roles used by the authoring workflow.
const (
	RoleDrafting  ModelRole = "drafting"
	RoleOutlining ModelRole = "outlining"
	RoleGating    ModelRole = "gating"
	RoleSummary   ModelRole = "summary"
)

// CredentialRef points at a secret indirectly. Secrets are never stored
// in config files; kind=env resolves the named environment variable.
type CredentialRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Resolve returns the secret value for the reference.
func (r CredentialRef) Resolve() (string, error) {
	switch r.Kind {
	case "env":
		value := os.Getenv(r.Name)
		if value == "" {
			return "", fmt.Errorf("credential env var %s is not set", r.Name)
		}
		return value, nil
	case "":
		return "", fmt.Errorf("credential_ref.kind is required")
	default:
		return "", fmt.Errorf("unsupported credential_ref.kind: %s", r.Kind)
	}
}

// ModelProfile describes one configured model endpoint.
type ModelProfile struct {
	Provider      string         `json:"provider"`
	Model         string         `json:"model"`
	Endpoint      string         `json:"endpoint,omitempty"`
	CredentialRef *CredentialRef `json:"credential_ref,omitempty"`
}

// ModelsConfig is the parsed models.json: named profiles plus role
// pointers into them.
type ModelsConfig struct {
	Profiles     map[string]ModelProfile `json:"profiles"`
	RolePointers map[ModelRole]string    `json:"roles"`
}

// ProfileForRole resolves the profile a role points at.
func (c *ModelsConfig) ProfileForRole(role ModelRole) (ModelProfile, bool) {
	id, ok := c.RolePointers[role]
	if !ok {
		return ModelProfile{}, false
	}
	profile, ok := c.Profiles[id]
	return profile, ok
}

// Validate checks that every role pointer references an existing
// profile.
func (c *ModelsConfig) Validate() error {
	var missing []string
	for role, id := range c.RolePointers {
		if _, ok := c.Profiles[id]; !ok {
			missing = append(missing, fmt.Sprintf("%s -> %s", role, id))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("role pointers reference missing profiles: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MergeOver layers this config over a base: profiles and role pointers
// from this config win.
func (c *ModelsConfig) MergeOver(base *ModelsConfig) *ModelsConfig {
	merged := &ModelsConfig{
		Profiles:     make(map[string]ModelProfile),
		RolePointers: make(map[ModelRole]string),
	}
	if base != nil {
		for id, profile := range base.Profiles {
			merged.Profiles[id] = profile
		}
		for role, id := range base.RolePointers {
			merged.RolePointers[role] = id
		}
	}
	for id, profile := range c.Profiles {
		merged.Profiles[id] = profile
	}
	for role, id := range c.RolePointers {
		merged.RolePointers[role] = id
	}
	return merged
}

// LoadModelsFile parses a models.json file.
func LoadModelsFile(path string) (*ModelsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config ModelsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse models config %s: %w", path, err)
	}
	return &config, nil
}

// GlobalModelsPath returns the global models.json path, honoring the
// env override.
func GlobalModelsPath() string {
	if path := os.Getenv(EnvGlobalModelsPath); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".novelaire", "config", "models.json")
}

// ProjectModelsPath returns the project models.json path, honoring the
// env override.
func ProjectModelsPath(projectRoot string) string {
	if path := os.Getenv(EnvProjectModelsPath); path != "" {
		return path
	}
	return filepath.Join(projectRoot, ".novelaire", "config", "models.json")
}

// LoadModels loads the layered models config: global first, project
// over it. Missing files are skipped; the merged result is validated.
func (l *Loader) LoadModels(projectRoot string) (*ModelsConfig, error) {
	merged := &ModelsConfig{
		Profiles:     make(map[string]ModelProfile),
		RolePointers: make(map[ModelRole]string),
	}

	for _, path := range []string{GlobalModelsPath(), ProjectModelsPath(projectRoot)} {
		if path == "" {
			continue
		}
		layer, err := LoadModelsFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Debug("No models config", slog.String("path", path))
				continue
			}
			return nil, err
		}
		l.logger.Debug("Loaded models config", slog.String("path", path))
		merged = layer.MergeOver(merged)
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
