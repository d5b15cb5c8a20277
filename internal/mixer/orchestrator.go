package mixer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/kong/ideamixer/internal/credential"
	"github.com/kong/ideamixer/internal/gemini"
	"github.com/kong/ideamixer/internal/log"
	"github.com/kong/ideamixer/internal/prompt"
	"github.com/kong/ideamixer/internal/render"
	"github.com/kong/ideamixer/internal/util"
)

// Generator performs the generateContent call. *gemini.Client implements it.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
	Model() string
}

// Renderer turns model text into display markup.
type Renderer func(text string) string

type Options struct {
	Client  Generator
	Session *credential.Session
	// Template defaults to the built in prompt
	Template *prompt.Template
	// Renderer defaults to render.HTML
	Renderer Renderer
	Logger   *slog.Logger
	// Frontend names the caller in logs, e.g. "cli" or "tui"
	Frontend string
}

// Orchestrator runs one mix request at a time against a View.
type Orchestrator struct {
	client   Generator
	session  *credential.Session
	template *prompt.Template
	render   Renderer
	logger   *slog.Logger
	frontend string

	running atomic.Bool
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Client == nil {
		return nil, errors.New("mixer: a client is required")
	}
	if opts.Session == nil {
		return nil, errors.New("mixer: a credential session is required")
	}
	o := &Orchestrator{
		client:   opts.Client,
		session:  opts.Session,
		template: opts.Template,
		render:   opts.Renderer,
		logger:   opts.Logger,
		frontend: opts.Frontend,
	}
	if o.template == nil {
		o.template = prompt.Default()
	}
	if o.render == nil {
		o.render = render.HTML
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}
	return o, nil
}

// Running reports whether a request is in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run performs one mix. Every failure is reported to view and classified in the
// returned Outcome; Run never panics on remote input and has no error return.
func (o *Orchestrator) Run(ctx context.Context, view View) Outcome {
	if !o.running.CompareAndSwap(false, true) {
		return Outcome{Kind: KindBusy, Model: o.client.Model(), Message: BusyNotice}
	}
	defer o.running.Store(false)

	out := Outcome{RunID: util.NewRequestID(), Model: o.client.Model()}
	ctx = log.WithHTTPLogContext(ctx, log.HTTPLogContext{
		RunID:    out.RunID,
		Model:    out.Model,
		Frontend: o.frontend,
	})
	logger := o.logger.With(slog.String("run_id", out.RunID))

	apiKey, ok := o.resolveCredential(ctx, view, logger)
	if !ok {
		view.Alert(CredentialRequiredAlert)
		out.Kind, out.Message = KindCredentialMissing, CredentialRequiredAlert
		return out
	}

	out.Topics = prompt.NormalizeTopics(view.Topics())
	if err := prompt.Validate(out.Topics); err != nil {
		view.Alert(TooFewTopicsAlert)
		out.Kind, out.Message = KindInvalidInput, TooFewTopicsAlert
		return out
	}

	view.SetLoading(true)
	defer view.SetLoading(false)

	text, err := o.template.Build(out.Topics)
	if err != nil {
		logger.Warn("failed to build prompt", slog.String("template", o.template.Name()), slog.Any("error", err))
		out.Kind, out.Message = KindPromptError, errorMessage(err.Error())
		view.ShowError(out.Message)
		return out
	}

	logger.Debug("mixing ideas", slog.Int("topics", len(out.Topics)))
	resp, err := o.client.GenerateContent(ctx, apiKey, gemini.NewTextRequest(text))
	if err != nil {
		o.reportFailure(view, logger, &out, err)
		return out
	}

	ideas, ok := resp.FirstText()
	if !ok {
		logger.Info("no ideas generated", slog.Int("candidates", len(resp.Candidates)))
		out.Kind, out.Message = KindEmpty, EmptyResultNotice
		view.ShowNotice(EmptyResultNotice)
		return out
	}

	out.Kind, out.Text = KindRendered, ideas
	out.Markup = o.render(ideas)
	view.ShowResult(out.Markup)
	return out
}

func (o *Orchestrator) resolveCredential(ctx context.Context, view View, logger *slog.Logger) (string, bool) {
	if v, ok := o.session.Value(); ok {
		return v, true
	}
	v, ok := view.PromptForCredential(ctx)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	if err := o.session.Set(v); err != nil {
		logger.Warn("failed to persist API key", slog.Any("error", err))
	}
	return v, true
}

func (o *Orchestrator) reportFailure(view View, logger *slog.Logger, out *Outcome, err error) {
	if apiErr, ok := gemini.IsAPIError(err); ok {
		msg := apiErr.Error()
		switch {
		case apiErr.CredentialRejected():
			msg += invalidKeySuffix
			if cerr := o.session.Invalidate(); cerr != nil {
				logger.Warn("failed to remove rejected API key", slog.Any("error", cerr))
			}
		case apiErr.ModelNotFound():
			msg += fmt.Sprintf(modelNotFoundFormat, out.Model)
		}
		logger.Warn("generateContent failed",
			slog.Int("status_code", apiErr.StatusCode),
			slog.String("message", apiErr.Message))

		out.Kind, out.StatusCode = KindRemoteError, apiErr.StatusCode
		out.Message = errorMessage(msg)
		if apiErr.CredentialRejected() {
			out.Message += "\n" + invalidKeyFollowUp
		}
		view.ShowError(out.Message)
		return
	}

	tErr, _ := gemini.IsTransportError(err)
	logger.Warn("generateContent did not complete",
		slog.Bool("transient", tErr.Transient()),
		slog.String("error", err.Error()))
	out.Kind, out.Message = KindTransportError, errorMessage(err.Error())
	view.ShowError(out.Message)
}

// errorMessage formats msg as the sentence shown in the result area
func errorMessage(msg string) string {
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return errorPrefix + msg
}
