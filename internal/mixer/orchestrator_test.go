package mixer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/kong/ideamixer/internal/credential"
	"github.com/kong/ideamixer/internal/gemini"
	"github.com/kong/ideamixer/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "AIza-test-key"

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// fakeView records every call in order
type fakeView struct {
	mu     sync.Mutex
	topics []string
	events []string

	credential      string
	credentialOK    bool
	credentialAsked int
}

func (v *fakeView) record(ev string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, ev)
}

func (v *fakeView) Topics() []string          { return v.topics }
func (v *fakeView) ShowResult(markup string)  { v.record("result:" + markup) }
func (v *fakeView) ShowError(message string)  { v.record("error:" + message) }
func (v *fakeView) ShowNotice(message string) { v.record("notice:" + message) }
func (v *fakeView) Alert(message string)      { v.record("alert:" + message) }
func (v *fakeView) SetLoading(loading bool) {
	if loading {
		v.record("loading")
		return
	}
	v.record("idle")
}

func (v *fakeView) PromptForCredential(context.Context) (string, bool) {
	v.credentialAsked++
	v.record("prompt")
	return v.credential, v.credentialOK
}

func (v *fakeView) Events() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.events...)
}

type harness struct {
	orch    *Orchestrator
	store   *credential.MemoryStore
	session *credential.Session
	calls   *atomic.Int32
}

func newHarness(t *testing.T, storedKey string, fn roundTripFunc, opts ...func(*Options)) *harness {
	t.Helper()
	store := credential.NewMemoryStore()
	if storedKey != "" {
		require.NoError(t, store.Set(credential.StorageKey, storedKey))
	}
	return newHarnessWithStore(t, store, store, fn, opts...)
}

func newHarnessWithStore(
	t *testing.T, store credential.Store, mem *credential.MemoryStore, fn roundTripFunc, opts ...func(*Options),
) *harness {
	t.Helper()
	session := credential.NewSession(store)
	require.NoError(t, session.Load(""))

	calls := &atomic.Int32{}
	client, err := gemini.NewClient(gemini.Options{
		BaseURL: "https://example.test/v1beta/models",
		Model:   "gemini-1.5-flash",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			calls.Add(1)
			return fn(req)
		})},
	})
	require.NoError(t, err)

	o := Options{Client: client, Session: session, Frontend: "test"}
	for _, opt := range opts {
		opt(&o)
	}
	orch, err := New(o)
	require.NoError(t, err)
	return &harness{orch: orch, store: mem, session: session, calls: calls}
}

func unexpectedCall(t *testing.T) roundTripFunc {
	return func(*http.Request) (*http.Response, error) {
		t.Error("unexpected network call")
		return nil, errors.New("unexpected")
	}
}

func TestRunRendersIdeas(t *testing.T) {
	require := require.New(t)

	const ideas = "### Idea\n**Concept:** x\n**Target Audience:** y\n---"
	var sentPrompt, sentKey string
	h := newHarness(t, testKey, func(req *http.Request) (*http.Response, error) {
		sentKey = req.URL.Query().Get("key")
		var body gemini.GenerateContentRequest
		raw, err := io.ReadAll(req.Body)
		require.NoError(err)
		require.NoError(json.Unmarshal(raw, &body))
		sentPrompt = body.Contents[0].Parts[0].Text
		payload, err := json.Marshal(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": ideas}}},
			}},
		})
		require.NoError(err)
		return jsonResponse(req, http.StatusOK, string(payload)), nil
	})

	view := &fakeView{topics: []string{" volcanoes ", "tax software"}}
	out := h.orch.Run(context.Background(), view)

	require.Equal(KindRendered, out.Kind)
	require.False(out.Failed())
	require.Equal(ideas, out.Text)
	require.Equal(
		"<h3>Idea</h3><br><strong>Concept:</strong> x<br><strong>Target Audience:</strong> y<br><hr>",
		out.Markup)
	require.Equal([]string{"volcanoes", "tax software"}, out.Topics)
	require.Equal("gemini-1.5-flash", out.Model)
	require.NotEmpty(out.RunID)

	require.Equal(testKey, sentKey)
	require.Equal(prompt.Build([]string{"volcanoes", "tax software"}), sentPrompt)
	require.Contains(sentPrompt, "- volcanoes\n- tax software\n")

	require.Equal([]string{"loading", "result:" + out.Markup, "idle"}, view.Events())
	require.EqualValues(1, h.calls.Load())
	require.Zero(view.credentialAsked)
}

func TestRunInvalidKeyPurgesCredential(t *testing.T) {
	require := require.New(t)

	h := newHarness(t, testKey, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusBadRequest, `{"error":{"message":"API key not valid"}}`), nil
	})

	view := &fakeView{topics: []string{"volcanoes", "tax software"}}
	out := h.orch.Run(context.Background(), view)

	require.Equal(KindRemoteError, out.Kind)
	require.True(out.Failed())
	require.Equal(http.StatusBadRequest, out.StatusCode)
	require.Equal("An error occurred: API Error: 400 - API key not valid. Please check your API key.\n"+
		"Please ensure your Gemini API key is correct and has the necessary permissions.", out.Message)

	_, stored, err := h.store.Get(credential.StorageKey)
	require.NoError(err)
	require.False(stored)
	_, cached := h.session.Value()
	require.False(cached)
	require.Equal("API Key Invalid. Please re-enter.", h.session.Status())

	require.Equal([]string{"loading", "error:" + out.Message, "idle"}, view.Events())
}

func TestRunAfterPurgePromptsAgain(t *testing.T) {
	require := require.New(t)

	var keys []string
	h := newHarness(t, "stale", func(req *http.Request) (*http.Response, error) {
		key := req.URL.Query().Get("key")
		keys = append(keys, key)
		if key == "stale" {
			return jsonResponse(req, http.StatusBadRequest, `{"error":{"message":"API key not valid. Please pass a valid API key."}}`), nil
		}
		return jsonResponse(req, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`), nil
	})

	view := &fakeView{topics: []string{"a", "b"}, credential: "fresh", credentialOK: true}
	require.Equal(KindRemoteError, h.orch.Run(context.Background(), view).Kind)
	require.Equal(KindRendered, h.orch.Run(context.Background(), view).Kind)

	require.Equal([]string{"stale", "fresh"}, keys)
	require.Equal(1, view.credentialAsked)
	v, ok, err := h.store.Get(credential.StorageKey)
	require.NoError(err)
	require.True(ok)
	require.Equal("fresh", v)
}

func TestRunEmptyCandidatesIsNotAnError(t *testing.T) {
	bodies := map[string]string{
		"no candidates":        `{"candidates":[]}`,
		"missing candidates":   `{}`,
		"candidate no parts":   `{"candidates":[{"content":{"parts":[]}}]}`,
		"candidate no content": `{"candidates":[{"finishReason":"SAFETY"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			h := newHarness(t, testKey, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(req, http.StatusOK, body), nil
			})
			view := &fakeView{topics: []string{"volcanoes", "tax software"}}
			out := h.orch.Run(context.Background(), view)

			require.Equal(KindEmpty, out.Kind)
			require.False(out.Failed())
			require.Equal(EmptyResultNotice, out.Message)
			require.Equal([]string{"loading", "notice:" + EmptyResultNotice, "idle"}, view.Events())
		})
	}
}

func TestRunTooFewTopicsMakesNoCall(t *testing.T) {
	inputs := [][]string{
		nil,
		{"volcanoes"},
		{"volcanoes", "   ", ""},
		{"\t", " "},
	}
	for _, topics := range inputs {
		require := require.New(t)
		h := newHarness(t, testKey, unexpectedCall(t))
		view := &fakeView{topics: topics}
		out := h.orch.Run(context.Background(), view)

		require.Equal(KindInvalidInput, out.Kind)
		require.Equal([]string{"alert:" + TooFewTopicsAlert}, view.Events())
		require.Zero(h.calls.Load())

		v, ok := h.session.Value()
		require.True(ok)
		require.Equal(testKey, v)
		require.False(h.orch.Running())
	}
}

func TestRunCredentialDeclined(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{name: "cancelled", value: "", ok: false},
		{name: "cancelled with text", value: "ignored", ok: false},
		{name: "blank", value: "   ", ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			h := newHarness(t, "", unexpectedCall(t))
			view := &fakeView{topics: []string{"a", "b"}, credential: tt.value, credentialOK: tt.ok}
			out := h.orch.Run(context.Background(), view)

			require.Equal(KindCredentialMissing, out.Kind)
			require.Equal(CredentialRequiredAlert, out.Message)
			require.Equal([]string{"prompt", "alert:" + CredentialRequiredAlert}, view.Events())
			require.Zero(h.calls.Load())
			_, stored, err := h.store.Get(credential.StorageKey)
			require.NoError(err)
			require.False(stored)
		})
	}
}

func TestRunPromptedCredentialIsPersisted(t *testing.T) {
	require := require.New(t)

	var sentKey string
	h := newHarness(t, "", func(req *http.Request) (*http.Response, error) {
		sentKey = req.URL.Query().Get("key")
		return jsonResponse(req, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"idea"}]}}]}`), nil
	})
	view := &fakeView{topics: []string{"a", "b"}, credential: "  typed-key  ", credentialOK: true}
	out := h.orch.Run(context.Background(), view)

	require.Equal(KindRendered, out.Kind)
	require.Equal("typed-key", sentKey)
	v, ok, err := h.store.Get(credential.StorageKey)
	require.NoError(err)
	require.True(ok)
	require.Equal("typed-key", v)
	require.Equal("API Key Loaded (from user input)", h.session.Status())
	require.Equal([]string{"prompt", "loading", "result:idea", "idle"}, view.Events())
}

type failingStore struct {
	*credential.MemoryStore
}

func (failingStore) Set(string, string) error {
	return errors.New("disk full")
}

func TestRunPersistFailureDoesNotAbort(t *testing.T) {
	require := require.New(t)

	mem := credential.NewMemoryStore()
	h := newHarnessWithStore(t, failingStore{mem}, mem, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"idea"}]}}]}`), nil
	})
	view := &fakeView{topics: []string{"a", "b"}, credential: "typed", credentialOK: true}
	out := h.orch.Run(context.Background(), view)

	require.Equal(KindRendered, out.Kind)
	v, ok := h.session.Value()
	require.True(ok)
	require.Equal("typed", v)
}

func TestRunRemoteErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "model not found",
			status: http.StatusNotFound,
			body:   `{"error":{"message":"models/gemini-1.5-flash is not found for API version v1beta"}}`,
			want: "An error occurred: API Error: 404 - models/gemini-1.5-flash is not found for API version v1beta. " +
				"Model 'gemini-1.5-flash' might be incorrect or unavailable for your region/project. Check documentation.",
		},
		{
			name:   "no body",
			status: http.StatusInternalServerError,
			body:   "",
			want:   "An error occurred: API Error: 500 - Unknown error.",
		},
		{
			name:   "plain message",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Resource has been exhausted"}}`,
			want:   "An error occurred: API Error: 429 - Resource has been exhausted.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			h := newHarness(t, testKey, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(req, tt.status, tt.body), nil
			})
			view := &fakeView{topics: []string{"a", "b"}}
			out := h.orch.Run(context.Background(), view)

			require.Equal(KindRemoteError, out.Kind)
			require.Equal(tt.status, out.StatusCode)
			require.Equal(tt.want, out.Message)
			// only a rejected key is purged
			_, ok := h.session.Value()
			require.True(ok)
			require.Equal([]string{"loading", "error:" + tt.want, "idle"}, view.Events())
		})
	}
}

func TestRunTransportError(t *testing.T) {
	require := require.New(t)

	h := newHarness(t, testKey, func(*http.Request) (*http.Response, error) {
		return nil, syscall.ECONNREFUSED
	})
	view := &fakeView{topics: []string{"a", "b"}}
	out := h.orch.Run(context.Background(), view)

	require.Equal(KindTransportError, out.Kind)
	require.True(strings.HasPrefix(out.Message, "An error occurred: "))
	require.Contains(out.Message, "connection refused")
	require.NotContains(out.Message, testKey)
	require.Equal([]string{"loading", "error:" + out.Message, "idle"}, view.Events())
}

func TestRunUndecodableSuccessIsTransportError(t *testing.T) {
	h := newHarness(t, testKey, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `<html>proxy</html>`), nil
	})
	out := h.orch.Run(context.Background(), &fakeView{topics: []string{"a", "b"}})
	assert.Equal(t, KindTransportError, out.Kind)
}

func TestRunCustomRenderer(t *testing.T) {
	h := newHarness(t, testKey, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"**b**"}]}}]}`), nil
	}, func(o *Options) {
		o.Renderer = strings.ToUpper
	})
	view := &fakeView{topics: []string{"a", "b"}}
	out := h.orch.Run(context.Background(), view)
	assert.Equal(t, "**B**", out.Markup)
	assert.Equal(t, "**b**", out.Text)
}

func TestRunPromptTemplateFailure(t *testing.T) {
	require := require.New(t)

	tmpl, err := prompt.Parse("three", `{{ if eq (len .Topics) 3 }}{{ fail "three is a crowd" }}{{ end }}{{ join ", " .Topics }}`)
	require.NoError(err)

	h := newHarness(t, testKey, unexpectedCall(t), func(o *Options) { o.Template = tmpl })
	view := &fakeView{topics: []string{"a", "b", "c"}}
	out := h.orch.Run(context.Background(), view)

	require.Equal(KindPromptError, out.Kind)
	require.Contains(out.Message, "three is a crowd")
	require.Equal([]string{"loading", "error:" + out.Message, "idle"}, view.Events())
	require.Zero(h.calls.Load())
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	require := require.New(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	h := newHarness(t, testKey, func(req *http.Request) (*http.Response, error) {
		close(entered)
		<-release
		return jsonResponse(req, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"idea"}]}}]}`), nil
	})

	first := &fakeView{topics: []string{"a", "b"}}
	done := make(chan Outcome, 1)
	go func() { done <- h.orch.Run(context.Background(), first) }()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("request never started")
	}
	require.True(h.orch.Running())

	second := &fakeView{topics: []string{"c", "d"}}
	busy := h.orch.Run(context.Background(), second)
	require.Equal(KindBusy, busy.Kind)
	require.Empty(second.Events())

	close(release)
	require.Equal(KindRendered, (<-done).Kind)
	require.False(h.orch.Running())
	require.EqualValues(1, h.calls.Load())
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Session: credential.NewSession(nil)})
	assert.Error(t, err)

	client, err := gemini.NewClient(gemini.Options{})
	require.NoError(t, err)
	_, err = New(Options{Client: client})
	assert.Error(t, err)
}

func TestTopicPlaceholder(t *testing.T) {
	assert.Equal(t, "Enter topic #3", TopicPlaceholder(3))
}
