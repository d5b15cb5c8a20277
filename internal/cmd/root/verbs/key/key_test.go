package key

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/config"
	"github.com/kong/ideamixer/internal/credential"
	"github.com/kong/ideamixer/internal/iostreams"
	"github.com/kong/ideamixer/internal/log"
	testcmd "github.com/kong/ideamixer/test/cmd"
	testconfig "github.com/kong/ideamixer/test/config"
)

type fixture struct {
	helper *testcmd.MockHelper
	cfg    *testconfig.MockConfigHook
	store  *credential.FileStore
	in     *bytes.Buffer
	out    *bytes.Buffer
	format common.OutputFormat
}

func newFixture(t *testing.T, command *cobra.Command, args ...string) *fixture {
	t.Helper()
	require.NoError(t, command.Flags().Parse(args))

	path := filepath.Join(t.TempDir(), "default", "credentials.json")
	streams, in, out, _ := iostreams.NewTestIOStreams()
	f := &fixture{
		cfg:    &testconfig.MockConfigHook{Values: map[string]any{common.CredentialsFileConfigPath: path}},
		store:  credential.NewFileStore(path),
		in:     in,
		out:    out,
		format: common.TEXT,
	}
	f.helper = &testcmd.MockHelper{
		GetCmdMock:          func() *cobra.Command { return command },
		GetConfigMock:       func() (config.Hook, error) { return f.cfg, nil },
		GetOutputFormatMock: func() (common.OutputFormat, error) { return f.format, nil },
		GetLoggerMock:       func() (*slog.Logger, error) { return log.Discard(), nil },
		GetStreamsMock:      func() *iostreams.IOStreams { return streams },
		GetContextMock:      context.Background,
	}
	return f
}

func (f *fixture) stored(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := f.store.Get(credential.StorageKey)
	require.NoError(t, err)
	return v, ok
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		override string
		want     string
	}{
		{name: "not set", want: "API Key Not Set\n"},
		{name: "stored", stored: "k", want: "API Key Loaded (from storage)\n"},
		{name: "override", stored: "k", override: "other", want: "API Key Loaded (from config)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, newStatusCmd())
			if tt.stored != "" {
				require.NoError(t, f.store.Set(credential.StorageKey, tt.stored))
			}
			if tt.override != "" {
				f.cfg.Values[common.APIKeyConfigPath] = tt.override
			}
			require.NoError(t, runStatus(f.helper))
			assert.Equal(t, tt.want, f.out.String())
		})
	}
}

func TestStatusJSONDoesNotLeakKey(t *testing.T) {
	f := newFixture(t, newStatusCmd())
	f.format = common.JSON
	require.NoError(t, f.store.Set(credential.StorageKey, "secret-value"))

	require.NoError(t, runStatus(f.helper))
	assert.NotContains(t, f.out.String(), "secret-value")

	var record statusRecord
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &record))
	assert.True(t, record.Loaded)
	assert.Equal(t, credential.SourceStorage, record.Source)
	assert.Equal(t, f.store.Path(), record.Path)
}

func TestSetFromStdin(t *testing.T) {
	f := newFixture(t, newSetCmd(), "--stdin")
	f.in.WriteString("  new-key  \n")

	require.NoError(t, runSet(f.helper))
	v, ok := f.stored(t)
	assert.True(t, ok)
	assert.Equal(t, "new-key", v)
	assert.True(t, strings.HasPrefix(f.out.String(), "API key saved to "))
}

func TestSetPromptsWithoutStdinFlag(t *testing.T) {
	f := newFixture(t, newSetCmd())
	f.in.WriteString("typed-key\n")

	require.NoError(t, runSet(f.helper))
	v, _ := f.stored(t)
	assert.Equal(t, "typed-key", v)
}

func TestSetRejectsBlankKey(t *testing.T) {
	for _, input := range []string{"", "   \n"} {
		f := newFixture(t, newSetCmd(), "--stdin")
		f.in.WriteString(input)

		err := runSet(f.helper)
		var cfgErr *cmd.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		_, ok := f.stored(t)
		assert.False(t, ok)
	}
}

func TestClearWithYes(t *testing.T) {
	f := newFixture(t, newClearCmd(), "--yes")
	require.NoError(t, f.store.Set(credential.StorageKey, "k"))

	require.NoError(t, runClear(f.helper))
	_, ok := f.stored(t)
	assert.False(t, ok)
	assert.Equal(t, "API key removed.\n", f.out.String())
}

func TestClearAsksForConfirmation(t *testing.T) {
	tests := []struct {
		answer  string
		removed bool
	}{
		{answer: "y\n", removed: true},
		{answer: "yes\n", removed: true},
		{answer: "n\n", removed: false},
		{answer: "", removed: false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			f := newFixture(t, newClearCmd())
			require.NoError(t, f.store.Set(credential.StorageKey, "k"))
			f.in.WriteString(tt.answer)

			require.NoError(t, runClear(f.helper))
			_, ok := f.stored(t)
			assert.Equal(t, !tt.removed, ok)
		})
	}
}

func TestNewKeyCmdSubcommands(t *testing.T) {
	c := NewKeyCmd()
	names := []string{}
	for _, sub := range c.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"status", "set", "clear"}, names)
}
