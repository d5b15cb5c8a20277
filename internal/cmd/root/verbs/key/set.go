package key

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/mixer"
	"github.com/kong/ideamixer/internal/util/i18n"
)

const stdinFlagName = "stdin"

func newSetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "set",
		Short: i18n.T("root.verbs.key.set.short", "Store a new API key"),
		Long: i18n.T("root.verbs.key.set.long",
			"Store a new API key. The key is read without echo from the terminal, or from stdin with --stdin."),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runSet(cmd.BuildHelper(c, args))
		},
	}
	c.Flags().Bool(stdinFlagName, false,
		i18n.T("root.verbs.key.set.stdin", "Read the key from the first line of stdin."))
	return c
}

func runSet(helper cmd.Helper) error {
	fromStdin, err := helper.GetCmd().Flags().GetBool(stdinFlagName)
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	var value string
	if fromStdin {
		value, err = readLine(streams.In)
	} else {
		value, err = cmd.PromptSecret(helper.GetContext(), streams, mixer.CredentialPromptLabel+" ")
	}
	if errors.Is(err, cmd.ErrPromptCancelled) {
		return &cmd.ConfigurationError{Err: errors.New(mixer.CredentialRequiredAlert)}
	}
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to read the API key", err)
	}
	if strings.TrimSpace(value) == "" {
		return &cmd.ConfigurationError{Err: errors.New(mixer.CredentialRequiredAlert)}
	}

	session, err := cmd.BuildSession(helper)
	if err != nil {
		return err
	}
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	path := cfg.GetString(common.CredentialsFileConfigPath)
	if err := session.Set(value); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to save the API key", err,
			slog.String("path", path))
	}

	if logger, err := helper.GetLogger(); err == nil {
		logger.Info("api key stored", slog.String("path", path))
	}
	_, err = fmt.Fprintf(streams.Out, "API key saved to %s\n", path)
	return err
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}
