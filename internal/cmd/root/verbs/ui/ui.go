package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/cmd/output/jq"
	"github.com/kong/ideamixer/internal/cmd/root/verbs"
	"github.com/kong/ideamixer/internal/iostreams"
	"github.com/kong/ideamixer/internal/meta"
	"github.com/kong/ideamixer/internal/render"
	"github.com/kong/ideamixer/internal/theme"
	"github.com/kong/ideamixer/internal/tui"
	"github.com/kong/ideamixer/internal/util/i18n"
	"github.com/kong/ideamixer/internal/util/normalizers"
)

const (
	Verb = verbs.UI

	// resultInset is the horizontal space the result frame takes from the terminal
	resultInset = 4
)

// runProgram is swapped in tests
var runProgram = tui.Run

var (
	uiUse = Verb.String()

	uiShort = i18n.T("root.verbs.ui.uiShort", "Open the interactive idea mixer")

	uiLong = normalizers.LongDesc(i18n.T("root.verbs.ui.uiLong",
		`Use ui to open a terminal form for entering topics and mixing them into ideas.

The form starts with two topic fields. More can be added before each run.
The API key is requested in the form when none is stored, and can be changed
at any time.`))

	uiExamples = normalizers.Examples(i18n.T("root.verbs.ui.uiExamples",
		fmt.Sprintf(`
		# Open the form
		%[1]s ui
		# Open the form with the light theme
		%[1]s ui --theme mixer-light
		`, meta.CLIName)))
)

func NewUICmd() *cobra.Command {
	return &cobra.Command{
		Use:     uiUse,
		Short:   uiShort,
		Long:    uiLong,
		Example: uiExamples,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
}

func run(helper cmd.Helper) error {
	streams := helper.GetStreams()
	mode, err := helper.GetColorMode()
	if err != nil {
		return err
	}
	useColor := jq.ShouldUseColor(mode, streams.Out)
	palette := theme.FromContext(helper.GetContext())

	rt, err := cmd.BuildRuntime(helper, "tui", func(text string) string {
		return render.Terminal(text, renderOptions(palette, useColor, streams))
	})
	if err != nil {
		return err
	}

	err = runProgram(helper.GetContext(), streams, tui.Options{
		Runner:   rt.Orchestrator,
		Session:  rt.Session,
		Model:    rt.Model,
		Palette:  palette,
		UseColor: useColor,
		Logger:   rt.Logger,
	})
	if err != nil {
		return cmd.PrepareExecutionError("the interactive form failed", err, helper.GetCmd())
	}
	return nil
}

// renderOptions pins a glamour style so rendering never queries the terminal
// while the form owns it
func renderOptions(palette theme.Palette, useColor bool, streams *iostreams.IOStreams) render.Options {
	opts := render.Options{NoColor: !useColor, Style: "dark"}
	if strings.Contains(palette.Name, "light") {
		opts.Style = "light"
	}
	if w := iostreams.TerminalWidth(streams.Out); w > resultInset {
		opts.Width = w - resultInset
	}
	return opts
}
