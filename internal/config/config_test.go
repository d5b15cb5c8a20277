package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kong/ideamixer/internal/cmd/common"
	utilviper "github.com/kong/ideamixer/internal/util/viper"
	"github.com/stretchr/testify/require"
)

func TestBuildProfiledConfig_ProfileEnvWithDashes(t *testing.T) {
	t.Setenv("IDEAMIXER_TEAM_A_B_C_GEMINI_MODEL", "gemini-1.5-pro")

	profile := "team-a-b-c"
	mainv := utilviper.NewViper("nonexistent.yaml")
	mainv.Set(profile, map[string]any{})

	cfg := BuildProfiledConfig(profile, "nonexistent.yaml", mainv)

	if got := cfg.GetString(common.ModelConfigPath); got != "gemini-1.5-pro" {
		t.Fatalf("expected %s to be %q, got %q", common.ModelConfigPath, "gemini-1.5-pro", got)
	}
}

func TestBuildProfiledConfig_MissingProfileUsesDefaults(t *testing.T) {
	t.Setenv("IDEAMIXER_STAGING_GEMINI_API_KEY", "from-env")

	mainv := utilviper.NewViper("nonexistent.yaml")
	cfg := BuildProfiledConfig("staging", "/tmp/ideamixer/config.yaml", mainv)

	require.Equal(t, "from-env", cfg.GetString(common.APIKeyConfigPath))
	require.Equal(t, common.DefaultModel, cfg.GetString(common.ModelConfigPath))
	require.Equal(t, common.DefaultBaseURL, cfg.GetString(common.BaseURLConfigPath))
	require.Equal(t, filepath.Join("/tmp/ideamixer", "staging", "credentials.json"),
		cfg.GetString(common.CredentialsFileConfigPath))
}

func TestGetConfigInitializesDefaultFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := GetDefaultConfigFilePath()
	require.NoError(err)
	require.Equal(filepath.Join(dir, "ideamixer", "config.yaml"), path)

	cfg, err := GetConfig(path, "default", path)
	require.NoError(err)
	require.Equal("default", cfg.GetProfile())
	require.Equal("text", cfg.GetString(common.OutputConfigPath))
	require.Equal(filepath.Join(dir, "ideamixer"), cfg.GetDir())

	_, err = os.Stat(path)
	require.NoError(err)
}

func TestGetConfigRejectsMissingExplicitPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := GetConfig(filepath.Join(t.TempDir(), "missing.yaml"), "default", "/does/not/matter.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}
