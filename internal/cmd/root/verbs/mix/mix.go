package mix

import (
	"context"
	"fmt"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/cmd/output/jq"
	"github.com/kong/ideamixer/internal/cmd/root/verbs"
	"github.com/kong/ideamixer/internal/iostreams"
	"github.com/kong/ideamixer/internal/meta"
	"github.com/kong/ideamixer/internal/mixer"
	"github.com/kong/ideamixer/internal/render"
	"github.com/kong/ideamixer/internal/util/i18n"
	"github.com/kong/ideamixer/internal/util/normalizers"
)

const (
	Verb = verbs.Mix
)

var (
	mixUse = Verb.String() + " <topic> <topic> [topic...]"

	mixShort = i18n.T("root.verbs.mix.mixShort", "Mix two or more topics into new ideas")

	mixLong = normalizers.LongDesc(i18n.T("root.verbs.mix.mixLong",
		`Use mix to send the given topics to Google Gemini and print the ideas it returns.

At least two non-blank topics are required. When no API key is stored, one is
requested on the terminal with hidden input and saved for later runs.
Output can be formatted as text, html, json or yaml.`))

	mixExamples = normalizers.Examples(i18n.T("root.verbs.mix.mixExamples",
		fmt.Sprintf(`
		# Mix two topics
		%[1]s mix "urban gardening" "blockchain"
		# Print the ideas as HTML markup
		%[1]s mix volcanoes "tax software" -o html
		# Print only the idea text from the structured result
		%[1]s mix volcanoes "tax software" -o json --jq .text -r
		`, meta.CLIName)))
)

func NewMixCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     mixUse,
		Short:   mixShort,
		Long:    mixLong,
		Example: mixExamples,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		PreRunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			cfg, err := helper.GetConfig()
			if err != nil {
				return err
			}
			return jq.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			settings, err := validate(helper)
			if err != nil {
				return err
			}
			return run(helper, settings)
		},
	}

	jq.AddFlags(c.Flags())

	return c
}

// validate rejects output flag combinations before any prompt or network call
func validate(helper cmd.Helper) (jq.Settings, error) {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return jq.Settings{}, err
	}
	mode, err := helper.GetColorMode()
	if err != nil {
		return jq.Settings{}, err
	}
	cfg, err := helper.GetConfig()
	if err != nil {
		return jq.Settings{}, err
	}
	settings, err := jq.ResolveSettings(helper.GetCmd(), cfg, mode)
	if err != nil {
		return jq.Settings{}, err
	}
	return settings, jq.Validate(outType, settings)
}

func run(helper cmd.Helper, settings jq.Settings) error {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()
	structured := outType == common.JSON || outType == common.YAML

	rt, err := cmd.BuildRuntime(helper, "cli", renderer(outType, settings.ColorMode, streams))
	if err != nil {
		return err
	}

	view := newConsoleView(streams, helper.GetArgs(), structured, rt.Logger)
	outcome := rt.Orchestrator.Run(helper.GetContext(), view)

	if structured {
		if err := printOutcome(outcome, outType, settings, streams); err != nil {
			return cmd.PrepareExecutionErrorFromErr(helper, err)
		}
	}
	if outcome.Failed() {
		return cmd.PrepareExitError(helper, 1)
	}
	return nil
}

// renderer picks the markup for ShowResult. Structured output carries HTML markup.
func renderer(outType common.OutputFormat, mode common.ColorMode, streams *iostreams.IOStreams) mixer.Renderer {
	if outType != common.TEXT {
		return render.HTML
	}
	opts := render.Options{
		NoColor: !jq.ShouldUseColor(mode, streams.Out),
		Width:   iostreams.TerminalWidth(streams.Out),
	}
	return func(text string) string {
		return render.Terminal(text, opts)
	}
}

func printOutcome(outcome mixer.Outcome, outType common.OutputFormat, settings jq.Settings,
	streams *iostreams.IOStreams,
) error {
	payload, handled, err := jq.Apply(outcome, outType, settings, streams.Out)
	if err != nil || handled {
		return err
	}

	p, err := cli.Format(outType.String(), streams.Out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(payload)
	return nil
}
