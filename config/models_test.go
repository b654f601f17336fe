package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRefResolve(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		t.Setenv("NOVELAIRE_TEST_KEY", "s3cret")
		value, err := CredentialRef{Kind: "env", Name: "NOVELAIRE_TEST_KEY"}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, "s3cret", value)
	})

	t.Run("unset env var", func(t *testing.T) {
		_, err := CredentialRef{Kind: "env", Name: "NOVELAIRE_TEST_UNSET"}.Resolve()
		assert.ErrorContains(t, err, "NOVELAIRE_TEST_UNSET")
	})

	t.Run("missing kind", func(t *testing.T) {
		_, err := CredentialRef{Name: "X"}.Resolve()
		assert.ErrorContains(t, err, "kind is required")
	})

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := CredentialRef{Kind: "file", Name: "/etc/key"}.Resolve()
		assert.ErrorContains(t, err, "unsupported")
	})
}

func TestModelsConfigValidate(t *testing.T) {
	cfg := &ModelsConfig{
		Profiles: map[string]ModelProfile{
			"fast": {Provider: "anthropic", Model: "claude-haiku"},
		},
		RolePointers: map[ModelRole]string{
			RoleGating: "fast",
		},
	}
	require.NoError(t, cfg.Validate())

	cfg.RolePointers[RoleDrafting] = "missing-profile"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drafting -> missing-profile")
}

func TestProfileForRole(t *testing.T) {
	cfg := &ModelsConfig{
		Profiles: map[string]ModelProfile{
			"strong": {Provider: "anthropic", Model: "claude-opus"},
		},
		RolePointers: map[ModelRole]string{
			RoleDrafting: "strong",
		},
	}

	profile, ok := cfg.ProfileForRole(RoleDrafting)
	require.True(t, ok)
	assert.Equal(t, "claude-opus", profile.Model)

	_, ok = cfg.ProfileForRole(RoleSummary)
	assert.False(t, ok)
}

func TestMergeOver(t *testing.T) {
	base := &ModelsConfig{
		Profiles: map[string]ModelProfile{
			"fast":   {Provider: "anthropic", Model: "claude-haiku"},
			"strong": {Provider: "anthropic", Model: "claude-opus"},
		},
		RolePointers: map[ModelRole]string{
			RoleDrafting: "strong",
			RoleGating:   "fast",
		},
	}
	overlay := &ModelsConfig{
		Profiles: map[string]ModelProfile{
			"strong": {Provider: "openai", Model: "gpt-5"},
		},
		RolePointers: map[ModelRole]string{
			RoleDrafting: "fast",
		},
	}

	merged := overlay.MergeOver(base)
	assert.Equal(t, "gpt-5", merged.Profiles["strong"].Model, "overlay profile wins")
	assert.Equal(t, "claude-haiku", merged.Profiles["fast"].Model, "base profile survives")
	assert.Equal(t, "fast", merged.RolePointers[RoleDrafting], "overlay pointer wins")
	assert.Equal(t, "fast", merged.RolePointers[RoleGating], "base pointer survives")

	t.Run("nil base", func(t *testing.T) {
		merged := overlay.MergeOver(nil)
		assert.Len(t, merged.Profiles, 1)
	})
}

func TestLoadModelsLayering(t *testing.T) {
	globalDir := t.TempDir()
	projectRoot := t.TempDir()
	projectDir := filepath.Join(projectRoot, ".novelaire", "config")
	require.NoError(t, writeFile(filepath.Join(globalDir, "models.json"), `{
		"profiles": {
			"fast": {"provider": "anthropic", "model": "claude-haiku",
				"credential_ref": {"kind": "env", "name": "ANTHROPIC_API_KEY"}},
			"strong": {"provider": "anthropic", "model": "claude-opus"}
		},
		"roles": {"drafting": "strong", "gating": "fast"}
	}`))
	require.NoError(t, mkdirAll(projectDir))
	require.NoError(t, writeFile(filepath.Join(projectDir, "models.json"), `{
		"profiles": {},
		"roles": {"drafting": "fast"}
	}`))
	t.Setenv(EnvGlobalModelsPath, filepath.Join(globalDir, "models.json"))
	t.Setenv(EnvProjectModelsPath, "")

	loader := NewLoader(nil)
	cfg, err := loader.LoadModels(projectRoot)
	require.NoError(t, err)

	// Project layer redirects drafting; the global gating pointer stays.
	assert.Equal(t, "fast", cfg.RolePointers[RoleDrafting])
	assert.Equal(t, "fast", cfg.RolePointers[RoleGating])
	profile, ok := cfg.ProfileForRole(RoleDrafting)
	require.True(t, ok)
	assert.Equal(t, "claude-haiku", profile.Model)
	require.NotNil(t, profile.CredentialRef)
	assert.Equal(t, "env", profile.CredentialRef.Kind)

	t.Run("invalid merged pointers", func(t *testing.T) {
		require.NoError(t, writeFile(filepath.Join(projectDir, "models.json"), `{
			"profiles": {},
			"roles": {"summary": "absent"}
		}`))
		_, err := loader.LoadModels(projectRoot)
		assert.ErrorContains(t, err, "absent")
	})

	t.Run("missing files are skipped", func(t *testing.T) {
		t.Setenv(EnvGlobalModelsPath, filepath.Join(globalDir, "nope.json"))
		cfg, err := loader.LoadModels(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, cfg.Profiles)
	})
}
