package cmd

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareExecutionErrorSilencesCommand(t *testing.T) {
	c := &cobra.Command{Use: "mix"}
	helper := BuildHelper(c, nil)

	base := errors.New("store unreadable")
	err := PrepareExecutionErrorWithHelper(helper, "failed to load the API key", base, "path", "/tmp/x")

	require.ErrorIs(t, err, base)
	assert.Equal(t, "failed to load the API key", err.Msg)
	assert.Equal(t, []any{"path", "/tmp/x"}, err.Attrs)
	assert.True(t, c.SilenceErrors)
	assert.True(t, c.SilenceUsage)
}

func TestPrepareExecutionErrorMsgDefaults(t *testing.T) {
	err := PrepareExecutionErrorMsg(nil, "")
	assert.Equal(t, "an unknown error occurred", err.Error())
	assert.Nil(t, PrepareExecutionErrorFromErr(nil, nil))
}

func TestPrepareExitError(t *testing.T) {
	c := &cobra.Command{Use: "mix"}
	err := PrepareExitError(BuildHelper(c, nil), 1)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.True(t, c.SilenceErrors)
}

func TestFlagEnumRejectsUnknownValue(t *testing.T) {
	e := NewEnum([]string{"text", "json"}, "text")
	require.NoError(t, e.Set("json"))
	assert.Equal(t, "json", e.String())
	assert.EqualError(t, e.Set("xml"), `invalid value "xml", must be one of [text json]`)
}
