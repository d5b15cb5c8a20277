package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kong/ideamixer/internal/build"
	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/cmd/root/verbs/key"
	"github.com/kong/ideamixer/internal/cmd/root/verbs/mix"
	"github.com/kong/ideamixer/internal/cmd/root/verbs/ui"
	"github.com/kong/ideamixer/internal/cmd/root/version"
	"github.com/kong/ideamixer/internal/config"
	"github.com/kong/ideamixer/internal/iostreams"
	"github.com/kong/ideamixer/internal/log"
	"github.com/kong/ideamixer/internal/meta"
	"github.com/kong/ideamixer/internal/theme"
	"github.com/kong/ideamixer/internal/util"
	"github.com/kong/ideamixer/internal/util/i18n"
	"github.com/kong/ideamixer/internal/util/normalizers"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  Idea Mixer combines two or more topics into new ideas using Google Gemini.

  Run "ui" for the interactive form or "mix" for a one-shot answer.
  The Gemini API key is kept in the credentials file of the active profile.`))

	rootShort = i18n.T("root/rootShort", fmt.Sprintf("%s mixes topics into new ideas", meta.CLIName))

	rootCmd *cobra.Command

	// Stores the global runtime value for the Configuration file path,
	configFilePath        string
	defaultConfigFilePath string
	currProfile           = common.DefaultProfile

	currConfig *config.ProfiledConfig
	streams    *iostreams.IOStreams
	logger     *slog.Logger
	closeLog   = func() error { return nil }

	outputFormat = cmd.NewEnum(common.OutputFormats, common.DefaultOutputFormat)
	colorMode    = cmd.NewEnum(common.ColorModes, common.DefaultColorMode)
	logLevel     = cmd.NewEnum(log.LevelNames, common.DefaultLogLevel)

	buildInfo *build.Info
)

// flagConfigPaths maps each persistent flag onto the configuration key it overrides
var flagConfigPaths = map[string]string{
	common.OutputFlagName:          common.OutputConfigPath,
	common.ColorFlagName:           common.ColorConfigPath,
	common.ColorThemeFlagName:      common.ColorThemeConfigPath,
	common.LogLevelFlagName:        common.LogLevelConfigPath,
	common.LogFileFlagName:         common.LogFileConfigPath,
	common.CredentialsFileFlagName: common.CredentialsFileConfigPath,
	common.BaseURLFlagName:         common.BaseURLConfigPath,
	common.ModelFlagName:           common.ModelConfigPath,
	common.APIKeyFlagName:          common.APIKeyConfigPath,
	common.PromptTemplateFlagName:  common.PromptTemplateConfigPath,
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           meta.CLIName,
		Short:         rootShort,
		Long:          rootLong,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			if err := theme.SetCurrent(currConfig.GetString(common.ColorThemeConfigPath)); err != nil {
				return &cmd.ConfigurationError{Err: err}
			}

			ctx := context.WithValue(c.Context(), config.ConfigKey, config.Hook(currConfig))
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, build.InfoKey, buildInfo)
			ctx = context.WithValue(ctx, log.LoggerKey, logger)
			ctx = theme.ContextWithPalette(ctx, theme.Current())
			c.SetContext(ctx)
			return nil
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFilePath, common.ConfigFilePathFlagName, defaultConfigFilePath,
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	flags.StringVarP(&currProfile, common.ProfileFlagName, common.ProfileFlagShort,
		common.DefaultProfile,
		"Specify the profile to use for this command.")

	// -------------------------------------------------------------------------
	// Enum flags keep their values in a FlagEnum so pflag rejects anything
	// outside the allowed set before the command runs
	flags.VarP(outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(outputFormat.Allowed, "|")))

	flags.Var(colorMode, common.ColorFlagName,
		fmt.Sprintf(`Configures when output is colored.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorConfigPath, strings.Join(colorMode.Allowed, "|")))

	flags.Var(logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging level written to the log file.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(logLevel.Allowed, "|")))
	// -------------------------------------------------------------------------

	flags.String(common.ColorThemeFlagName, common.DefaultColorTheme,
		fmt.Sprintf(`Color theme of the interactive form.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorThemeConfigPath, strings.Join(theme.Available(), "|")))

	flags.String(common.LogFileFlagName, "",
		fmt.Sprintf(`Path of the log file.
- Config path: [ %s ]`, common.LogFileConfigPath))

	flags.String(common.CredentialsFileFlagName, "",
		fmt.Sprintf(`Path of the file that stores the Gemini API key.
- Config path: [ %s ]`, common.CredentialsFileConfigPath))

	flags.String(common.BaseURLFlagName, common.DefaultBaseURL,
		fmt.Sprintf(`Base URL of the Gemini models endpoint.
- Config path: [ %s ]`, common.BaseURLConfigPath))

	flags.StringP(common.ModelFlagName, common.ModelFlagShort, common.DefaultModel,
		fmt.Sprintf(`Gemini model that generates the ideas.
- Config path: [ %s ]`, common.ModelConfigPath))

	flags.String(common.APIKeyFlagName, "",
		fmt.Sprintf(`Gemini API key for this run. It is never written to the credentials file.
- Config path: [ %s ]`, common.APIKeyConfigPath))

	flags.String(common.PromptTemplateFlagName, "",
		fmt.Sprintf(`Path of a text/template file that replaces the built in prompt.
- Config path: [ %s ]`, common.PromptTemplateConfigPath))

	return rootCmd
}

// addCommands adds the root subcommands to the command.
func addCommands() {
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(mix.NewMixCmd())
	rootCmd.AddCommand(ui.NewUICmd())
	rootCmd.AddCommand(key.NewKeyCmd())
}

func init() {
	var err error
	defaultConfigFilePath, err = config.GetDefaultConfigFilePath()
	util.CheckError(err)
	configFilePath = defaultConfigFilePath

	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()
	addCommands()

	// Because the profile is not part of the configuration, we can't use viper
	// to read it following it's built in priorities.  So here we look for a well known
	// profile variable and set our package level variable if it's set before
	// continuing to process the command run.  This creates a ENV_VAR < CLI_FLAG priority
	profileEnvVar, found := os.LookupEnv(fmt.Sprintf("%s_PROFILE", strings.ToUpper(meta.CLIName)))
	if found {
		currProfile = profileEnvVar
	}
}

func initConfig() {
	cfg, err := config.GetConfig(configFilePath, currProfile, defaultConfigFilePath)
	util.CheckError(err)
	currConfig = cfg

	util.CheckError(bindFlags(cfg, rootCmd))
}

func bindFlags(cfg config.Hook, c *cobra.Command) error {
	for flag, path := range flagConfigPaths {
		if err := cfg.BindFlag(path, c.PersistentFlags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func initLogger() error {
	l, closer, err := log.New(log.Options{
		Level:    currConfig.GetString(common.LogLevelConfigPath),
		FilePath: currConfig.GetString(common.LogFileConfigPath),
		Console:  streams.ErrOut,
	})
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	logger, closeLog = l, closer
	logger.Debug("command starting",
		slog.String("profile", currConfig.GetProfile()),
		slog.String("config_file", currConfig.GetPath()))
	return nil
}

func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) {
	buildInfo = bi
	cobra.EnableTraverseRunHooks = true
	streams = s
	err := rootCmd.ExecuteContext(ctx)
	code := report(err, s.ErrOut, logger)
	_ = closeLog()
	if code != 0 {
		os.Exit(code)
	}
}

// report prints err the way its type asks for and returns the process exit code
func report(err error, errOut io.Writer, l *slog.Logger) int {
	if err == nil {
		return 0
	}

	var exitError *cmd.ExitError
	if errors.As(err, &exitError) {
		// the command already told the user what happened
		return exitError.Code
	}

	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) && l != nil {
		attrs := append([]any{slog.Any("error", executionError.Err)}, executionError.Attrs...)
		l.Error(executionError.Msg, attrs...)
		return 1
	}

	fmt.Fprintf(errOut, "Error: %s\n", err)
	return 1
}
