package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kong/ideamixer/internal/credential"
	"github.com/kong/ideamixer/internal/meta"
	"github.com/kong/ideamixer/internal/mixer"
	"github.com/kong/ideamixer/internal/theme"
)

const (
	initialTopics   = 2
	topicCharLimit  = 200
	defaultWidth    = 80
	defaultHeight   = 24
	minResultHeight = 3
	promptSymbol    = "› "
	addTopicLabel   = "[ + Add Topic ]"
	eventBuffer     = 16
)

// writeClipboard is swapped in tests
var writeClipboard = clipboard.WriteAll

// Runner is the part of the orchestrator the form drives.
type Runner interface {
	Run(ctx context.Context, view mixer.View) mixer.Outcome
	Running() bool
}

// Options configure the interactive form.
type Options struct {
	Runner   Runner
	Session  *credential.Session
	Model    string
	Palette  theme.Palette
	UseColor bool
	Logger   *slog.Logger
}

type resultKind int

const (
	resultNone resultKind = iota
	resultIdeas
	resultError
	resultNotice
)

type model struct {
	ctx     context.Context
	opts    Options
	styles  styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	topics []textinput.Model
	// focus indexes topics, then the add button, then the mix button
	focus int

	loading bool
	// pending covers the gap between starting a run and its first message
	pending bool

	result     viewport.Model
	resultKind resultKind
	resultBody string
	lastText   string
	flash      string

	credInput  textinput.Model
	credActive bool
	credReply  chan<- credentialReply

	alert string

	events chan tea.Msg
	done   chan struct{}

	width  int
	height int
}

func newModel(ctx context.Context, opts Options) *model {
	if ctx == nil {
		ctx = context.Background()
	}
	pal := opts.Palette
	if strings.TrimSpace(pal.Name) == "" {
		pal = theme.FromContext(ctx)
	}
	st := buildStyles(pal, opts.UseColor)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.spinner

	cred := textinput.New()
	cred.Prompt = promptSymbol
	cred.EchoMode = textinput.EchoPassword
	cred.EchoCharacter = '•'
	cred.Placeholder = "AIza..."
	cred.PromptStyle = st.prompt
	cred.PlaceholderStyle = st.placeholder

	m := &model{
		ctx:       ctx,
		opts:      opts,
		styles:    st,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		result:    viewport.New(defaultWidth-4, minResultHeight),
		credInput: cred,
		events:    make(chan tea.Msg, eventBuffer),
		done:      make(chan struct{}),
		width:     defaultWidth,
		height:    defaultHeight,
	}
	for range initialTopics {
		m.appendTopic()
	}
	m.setFocus(0)
	m.layout()
	return m
}

func (m *model) appendTopic() {
	ti := textinput.New()
	ti.Prompt = promptSymbol
	ti.Placeholder = mixer.TopicPlaceholder(len(m.topics) + 1)
	ti.CharLimit = topicCharLimit
	ti.PromptStyle = m.styles.prompt
	ti.PlaceholderStyle = m.styles.placeholder
	ti.Width = m.inputWidth()
	m.topics = append(m.topics, ti)
}

func (m *model) addButtonIndex() int { return len(m.topics) }
func (m *model) mixButtonIndex() int { return len(m.topics) + 1 }

func (m *model) setFocus(i int) tea.Cmd {
	last := m.mixButtonIndex()
	switch {
	case i < 0:
		i = last
	case i > last:
		i = 0
	}
	m.focus = i
	var cmd tea.Cmd
	for idx := range m.topics {
		if idx == i {
			cmd = m.topics[idx].Focus()
			continue
		}
		m.topics[idx].Blur()
	}
	return cmd
}

func (m *model) topicValues() []string {
	values := make([]string, len(m.topics))
	for i := range m.topics {
		values[i] = m.topics[i].Value()
	}
	return values
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForRunEvent(m.events, m.done))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		m.layout()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadingMsg:
		m.loading = msg.loading
		next := m.nextEvent()
		if msg.loading {
			m.setResult(resultNone, "")
			m.lastText = ""
			return m, tea.Batch(next, m.spinner.Tick)
		}
		return m, next
	case resultMsg:
		m.setResult(resultIdeas, msg.markup)
		return m, m.nextEvent()
	case errorMsg:
		m.setResult(resultError, msg.text)
		return m, m.nextEvent()
	case noticeMsg:
		m.setResult(resultNotice, msg.text)
		return m, m.nextEvent()
	case alertMsg:
		m.alert = msg.text
		return m, m.nextEvent()
	case credentialRequestMsg:
		return m, tea.Batch(m.openCredentialPrompt(msg.reply), m.nextEvent())
	case runFinishedMsg:
		m.pending = false
		if msg.outcome.Kind == mixer.KindRendered {
			m.lastText = msg.outcome.Text
		}
		m.logger().Debug("mix finished",
			slog.String("kind", string(msg.outcome.Kind)),
			slog.String("run_id", msg.outcome.RunID))
		return m, m.nextEvent()
	}

	if m.credActive {
		var cmd tea.Cmd
		m.credInput, cmd = m.credInput.Update(msg)
		return m, cmd
	}
	if m.focus < len(m.topics) {
		var cmd tea.Cmd
		m.topics[m.focus], cmd = m.topics[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) nextEvent() tea.Cmd {
	return waitForRunEvent(m.events, m.done)
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.alert != "" {
		if key.Matches(msg, m.keys.Activate, m.keys.Cancel) {
			m.alert = ""
		}
		return nil
	}

	if m.credActive {
		switch {
		case key.Matches(msg, m.keys.Activate):
			m.closeCredentialPrompt(true)
			return nil
		case key.Matches(msg, m.keys.Cancel):
			m.closeCredentialPrompt(false)
			return nil
		}
		var cmd tea.Cmd
		m.credInput, cmd = m.credInput.Update(msg)
		return cmd
	}

	m.flash = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Run):
		return m.startRun()
	case key.Matches(msg, m.keys.AddTopic):
		return m.addTopic()
	case key.Matches(msg, m.keys.Copy):
		m.copyResult()
		return nil
	case key.Matches(msg, m.keys.ChangeKey):
		if m.busy() {
			return nil
		}
		return m.openCredentialPrompt(nil)
	case key.Matches(msg, m.keys.Next):
		return m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.Prev):
		return m.setFocus(m.focus - 1)
	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return cmd
	case key.Matches(msg, m.keys.Activate):
		switch m.focus {
		case m.addButtonIndex():
			return m.addTopic()
		case m.mixButtonIndex():
			return m.startRun()
		default:
			return m.setFocus(m.focus + 1)
		}
	}

	if m.focus < len(m.topics) {
		var cmd tea.Cmd
		m.topics[m.focus], cmd = m.topics[m.focus].Update(msg)
		return cmd
	}
	return nil
}

func (m *model) busy() bool {
	return m.loading || m.pending
}

func (m *model) quit() tea.Cmd {
	if m.credReply != nil {
		m.credReply <- credentialReply{}
		m.credReply = nil
	}
	return tea.Quit
}

func (m *model) addTopic() tea.Cmd {
	m.appendTopic()
	m.layout()
	return m.setFocus(len(m.topics) - 1)
}

// startRun hands a snapshot of the topics to the orchestrator on its own goroutine.
// Every view update and the final outcome come back through m.events.
func (m *model) startRun() tea.Cmd {
	if m.busy() || m.opts.Runner == nil || m.opts.Runner.Running() {
		return nil
	}
	m.pending = true
	view := newRunView(m.events, m.done, m.topicValues())
	runner, ctx := m.opts.Runner, m.ctx
	return func() tea.Msg {
		out := runner.Run(ctx, view)
		view.send(runFinishedMsg{outcome: out})
		return nil
	}
}

func (m *model) openCredentialPrompt(reply chan<- credentialReply) tea.Cmd {
	m.credActive = true
	m.credReply = reply
	m.credInput.SetValue("")
	for i := range m.topics {
		m.topics[i].Blur()
	}
	return m.credInput.Focus()
}

func (m *model) closeCredentialPrompt(accepted bool) {
	value := strings.TrimSpace(m.credInput.Value())
	m.credInput.SetValue("")
	m.credInput.Blur()
	m.credActive = false

	if m.credReply != nil {
		m.credReply <- credentialReply{value: value, ok: accepted}
		m.credReply = nil
	} else if accepted && value != "" && m.opts.Session != nil {
		// a key entered outside a run is stored straight away
		if err := m.opts.Session.Set(value); err != nil {
			m.logger().Warn("failed to persist API key", slog.Any("error", err))
		}
	}
	m.setFocus(m.focus)
}

func (m *model) copyResult() {
	text := m.lastText
	if text == "" {
		text = m.resultBody
	}
	if strings.TrimSpace(text) == "" {
		m.flash = "Nothing to copy yet"
		return
	}
	if err := writeClipboard(text); err != nil {
		m.flash = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.flash = "Copied to clipboard"
}

func (m *model) setResult(kind resultKind, body string) {
	m.resultKind = kind
	m.resultBody = body
	m.refreshResult()
}

func (m *model) refreshResult() {
	width := m.result.Width
	var content string
	switch m.resultKind {
	case resultIdeas:
		content = m.resultBody
	case resultError:
		content = m.styles.errorText.Render(wordwrap.String(m.resultBody, width))
	case resultNotice:
		content = m.styles.noticeText.Render(wordwrap.String(m.resultBody, width))
	}
	m.result.SetContent(content)
	m.result.GotoTop()
}

func (m *model) inputWidth() int {
	return maxInt(m.width-lipgloss.Width(promptSymbol)-4, 10)
}

// layout sizes the result viewport to whatever the form leaves free
func (m *model) layout() {
	for i := range m.topics {
		m.topics[i].Width = m.inputWidth()
	}
	m.credInput.Width = m.inputWidth()
	m.help.Width = m.width

	// title, status, blank, label, topics, buttons, blank, result border, help
	used := 4 + len(m.topics) + 2 + 2 + 1
	m.result.Width = maxInt(m.width-4, 10)
	m.result.Height = maxInt(m.height-used, minResultHeight)
	m.refreshResult()
}

func (m *model) logger() *slog.Logger {
	if m.opts.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.opts.Logger
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render(meta.DisplayName))
	b.WriteString("\n")
	b.WriteString(m.styles.status.Render(m.statusLine()))
	b.WriteString("\n\n")

	switch {
	case m.alert != "":
		b.WriteString(m.renderOverlay(m.alert, "enter to dismiss"))
	case m.credActive:
		body := mixer.CredentialPromptLabel + "\n\n" + m.credInput.View()
		b.WriteString(m.renderOverlay(body, "enter to save · esc to cancel"))
	default:
		b.WriteString(m.renderForm())
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *model) statusLine() string {
	parts := []string{}
	if m.opts.Session != nil {
		parts = append(parts, m.opts.Session.Status())
	}
	if m.opts.Model != "" {
		parts = append(parts, m.opts.Model)
	}
	if m.flash != "" {
		parts = append(parts, m.styles.flash.Render(m.flash))
	}
	return strings.Join(parts, " · ")
}

func (m *model) renderForm() string {
	var b strings.Builder
	b.WriteString(m.styles.label.Render("Topics"))
	b.WriteString("\n")
	for i := range m.topics {
		b.WriteString(m.topics[i].View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderButton(addTopicLabel, m.focus == m.addButtonIndex(), true))
	b.WriteString("  ")
	mixLabel := "[ " + mixer.IdleLabel + " ]"
	if m.busy() {
		mixLabel = m.spinner.View() + " " + mixer.LoadingLabel
	}
	b.WriteString(m.renderButton(mixLabel, m.focus == m.mixButtonIndex(), !m.busy()))
	b.WriteString("\n\n")

	if m.resultKind != resultNone {
		b.WriteString(m.styles.result.Render(m.result.View()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) renderButton(label string, focused, enabled bool) string {
	switch {
	case !enabled:
		return m.styles.buttonOff.Render(label)
	case focused:
		return m.styles.buttonFocus.Render(label)
	default:
		return m.styles.button.Render(label)
	}
}

func (m *model) renderOverlay(body, hint string) string {
	width := maxInt(minInt(m.width-6, 72), 20)
	text := wordwrap.String(body, width) + "\n\n" + m.styles.status.Render(hint)
	return m.styles.overlay.Width(width).Render(text) + "\n"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
