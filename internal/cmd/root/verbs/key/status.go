package key

import (
	"fmt"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/credential"
	"github.com/kong/ideamixer/internal/util/i18n"
)

type statusRecord struct {
	Status string            `json:"status" yaml:"status"`
	Loaded bool              `json:"loaded" yaml:"loaded"`
	Source credential.Source `json:"source,omitempty" yaml:"source,omitempty"`
	Path   string            `json:"path" yaml:"path"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("root.verbs.key.status.short", "Show whether an API key is available"),
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runStatus(cmd.BuildHelper(c, args))
		},
	}
}

func runStatus(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	session, err := cmd.BuildSession(helper)
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}

	_, loaded := session.Value()
	record := statusRecord{
		Status: session.Status(),
		Loaded: loaded,
		Source: session.Source(),
		Path:   cfg.GetString(common.CredentialsFileConfigPath),
	}

	out := helper.GetStreams().Out
	if outType == common.TEXT || outType == common.HTML {
		_, err := fmt.Fprintln(out, record.Status)
		return err
	}

	p, err := cli.Format(outType.String(), out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(record)
	return nil
}
