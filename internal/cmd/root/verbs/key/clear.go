package key

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/util/i18n"
)

const yesFlagName = "yes"

func newClearCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "clear",
		Aliases: []string{"rm"},
		Short:   i18n.T("root.verbs.key.clear.short", "Remove the stored API key"),
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runClear(cmd.BuildHelper(c, args))
		},
	}
	c.Flags().BoolP(yesFlagName, "y", false,
		i18n.T("root.verbs.key.clear.yes", "Remove the key without asking for confirmation."))
	return c
}

func runClear(helper cmd.Helper) error {
	yes, err := helper.GetCmd().Flags().GetBool(yesFlagName)
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	if !yes {
		confirmed, err := cmd.Confirm(helper.GetContext(), streams, "Remove the stored API key?")
		if err != nil && !errors.Is(err, cmd.ErrPromptCancelled) {
			return cmd.PrepareExecutionErrorWithHelper(helper, "failed to read confirmation", err)
		}
		if !confirmed {
			_, err := fmt.Fprintln(streams.Out, "API key kept.")
			return err
		}
	}

	session, err := cmd.BuildSession(helper)
	if err != nil {
		return err
	}
	if err := session.Clear(); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to remove the API key", err)
	}

	if logger, err := helper.GetLogger(); err == nil {
		logger.Info("api key removed")
	}
	_, err = fmt.Fprintln(streams.Out, "API key removed.")
	return err
}
