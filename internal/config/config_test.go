package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovecli/grove/internal/tidy"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, tidy.DefaultBudsPerBranch, cfg.Tidy.BudsPerBranch)
	assert.Equal(t, "bd", cfg.Beads.Command)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
db-path: /tmp/custom.db
actor: gardener
tidy:
  buds-per-branch: 25
beads:
  default-repo: /srv/tracker
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
	assert.Equal(t, "gardener", cfg.Actor)
	assert.Equal(t, 25, cfg.Tidy.BudsPerBranch)
	// Unset keys keep their defaults.
	assert.Equal(t, tidy.DefaultBranchesPerTrunk, cfg.Tidy.BranchesPerTrunk)
	assert.Equal(t, "/srv/tracker", cfg.Beads.DefaultRepo)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("actor: fromfile\n"), 0o644))
	t.Setenv("GROVE_ACTOR", "fromenv")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Actor)
}

func TestDirHonorsEnv(t *testing.T) {
	t.Setenv("GROVE_CONFIG_DIR", "/opt/grove-conf")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/opt/grove-conf", dir)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("actor: [unclosed\n"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err, "malformed config accepted")
}

func TestDump(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	out, err := cfg.Dump()
	require.NoError(t, err)
	for _, key := range []string{"db-path:", "actor:", "tidy:", "beads:"} {
		assert.Contains(t, out, key)
	}
}
