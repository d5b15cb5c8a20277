package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kong/ideamixer/internal/cmd/common"
	"github.com/kong/ideamixer/internal/config"
	"github.com/kong/ideamixer/internal/credential"
	"github.com/kong/ideamixer/internal/gemini"
	"github.com/kong/ideamixer/internal/httpclient"
	"github.com/kong/ideamixer/internal/mixer"
	promptpkg "github.com/kong/ideamixer/internal/prompt"
)

// A function that can build a Gemini client with a given configuration
type GeminiClientFactory func(cfg config.Hook, logger *slog.Logger) (*gemini.Client, error)

type factoryKey struct{}

// A Key used to store the GeminiClientFactory in a Context
var GeminiClientFactoryKey = factoryKey{}

// DefaultGeminiClientFactory builds the client from the gemini.* config keys
// with the logging HTTP client.
func DefaultGeminiClientFactory(cfg config.Hook, logger *slog.Logger) (*gemini.Client, error) {
	return gemini.NewClient(gemini.Options{
		BaseURL:    cfg.GetString(common.BaseURLConfigPath),
		Model:      cfg.GetString(common.ModelConfigPath),
		HTTPClient: httpclient.NewLoggingHTTPClient(logger),
		Logger:     logger,
	})
}

// Runtime is everything a front end needs to mix ideas.
type Runtime struct {
	Orchestrator *mixer.Orchestrator
	Session      *credential.Session
	Model        string
	Logger       *slog.Logger
}

// BuildSession opens the configured credential store and loads the key once.
// A gemini.api-key value overrides the stored key without being written back.
func BuildSession(helper Helper) (*credential.Session, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(cfg.GetString(common.CredentialsFileConfigPath))
	if path == "" {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("%s must not be empty", common.CredentialsFileConfigPath),
		}
	}
	session := credential.NewSession(credential.NewFileStore(path))
	if err := session.Load(cfg.GetString(common.APIKeyConfigPath)); err != nil {
		return nil, PrepareExecutionErrorWithHelper(helper, "failed to read the stored API key", err,
			slog.String("path", path))
	}
	return session, nil
}

// BuildRuntime wires the session, the Gemini client, the prompt template and the
// orchestrator from configuration. renderer may be nil.
func BuildRuntime(helper Helper, frontend string, renderer mixer.Renderer) (*Runtime, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return nil, err
	}

	session, err := BuildSession(helper)
	if err != nil {
		return nil, err
	}

	factory, ok := helper.GetContext().Value(GeminiClientFactoryKey).(GeminiClientFactory)
	if !ok || factory == nil {
		factory = DefaultGeminiClientFactory
	}
	client, err := factory(cfg, logger)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	tmpl, err := promptpkg.Load(cfg.GetString(common.PromptTemplateConfigPath))
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	orchestrator, err := mixer.New(mixer.Options{
		Client:   client,
		Session:  session,
		Template: tmpl,
		Renderer: renderer,
		Logger:   logger,
		Frontend: frontend,
	})
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Orchestrator: orchestrator,
		Session:      session,
		Model:        client.Model(),
		Logger:       logger,
	}, nil
}
