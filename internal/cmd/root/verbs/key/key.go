package key

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kong/ideamixer/internal/cmd/root/verbs"
	"github.com/kong/ideamixer/internal/meta"
	"github.com/kong/ideamixer/internal/util/i18n"
	"github.com/kong/ideamixer/internal/util/normalizers"
)

const (
	Verb = verbs.Key
)

var (
	keyUse = Verb.String()

	keyShort = i18n.T("root.verbs.key.keyShort", "Manage the stored Gemini API key")

	keyLong = normalizers.LongDesc(i18n.T("root.verbs.key.keyLong",
		`Use key to inspect, replace or remove the Gemini API key kept in the
credentials file of the current profile.`))

	keyExamples = normalizers.Examples(i18n.T("root.verbs.key.keyExamples",
		fmt.Sprintf(`
		# Show whether a key is available
		%[1]s key status
		# Store a key typed on the terminal
		%[1]s key set
		# Store a key read from stdin
		echo "$GEMINI_API_KEY" | %[1]s key set --stdin
		# Remove the stored key without confirmation
		%[1]s key clear --yes
		`, meta.CLIName)))
)

func NewKeyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     keyUse,
		Short:   keyShort,
		Long:    keyLong,
		Example: keyExamples,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
	}

	c.AddCommand(newStatusCmd())
	c.AddCommand(newSetCmd())
	c.AddCommand(newClearCmd())

	return c
}
