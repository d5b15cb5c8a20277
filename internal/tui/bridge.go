package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kong/ideamixer/internal/mixer"
)

type loadingMsg struct {
	loading bool
}

type resultMsg struct {
	markup string
}

type errorMsg struct {
	text string
}

type noticeMsg struct {
	text string
}

type alertMsg struct {
	text string
}

type credentialReply struct {
	value string
	ok    bool
}

type credentialRequestMsg struct {
	reply chan<- credentialReply
}

type runFinishedMsg struct {
	outcome mixer.Outcome
}

// runView implements mixer.View for one run. Calls arrive on the orchestrator's
// goroutine and are forwarded to the program as messages.
type runView struct {
	events chan<- tea.Msg
	done   <-chan struct{}
	topics []string
}

func newRunView(events chan<- tea.Msg, done <-chan struct{}, topics []string) *runView {
	return &runView{events: events, done: done, topics: topics}
}

// send drops msg once the program has exited
func (v *runView) send(msg tea.Msg) {
	select {
	case v.events <- msg:
	case <-v.done:
	}
}

func (v *runView) Topics() []string          { return v.topics }
func (v *runView) SetLoading(loading bool)   { v.send(loadingMsg{loading: loading}) }
func (v *runView) ShowResult(markup string)  { v.send(resultMsg{markup: markup}) }
func (v *runView) ShowError(message string)  { v.send(errorMsg{text: message}) }
func (v *runView) ShowNotice(message string) { v.send(noticeMsg{text: message}) }
func (v *runView) Alert(message string)      { v.send(alertMsg{text: message}) }

// PromptForCredential blocks until the model answers, the run context ends or the
// program exits.
func (v *runView) PromptForCredential(ctx context.Context) (string, bool) {
	reply := make(chan credentialReply, 1)
	select {
	case v.events <- credentialRequestMsg{reply: reply}:
	case <-v.done:
		return "", false
	case <-ctx.Done():
		return "", false
	}
	select {
	case r := <-reply:
		return r.value, r.ok
	case <-v.done:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// waitForRunEvent delivers the next bridged message. Exactly one is outstanding
// while the program runs.
func waitForRunEvent(events <-chan tea.Msg, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}
