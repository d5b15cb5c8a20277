package mixer

// Kind classifies how a run ended.
type Kind string

const (
	KindRendered          Kind = "rendered"
	KindEmpty             Kind = "empty"
	KindRemoteError       Kind = "remote_error"
	KindTransportError    Kind = "transport_error"
	KindPromptError       Kind = "prompt_error"
	KindInvalidInput      Kind = "invalid_input"
	KindCredentialMissing Kind = "credential_missing"
	KindBusy              Kind = "busy"
)

// Outcome is the record of one Run. It carries no credential material.
type Outcome struct {
	Kind   Kind     `json:"kind" yaml:"kind"`
	RunID  string   `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Model  string   `json:"model" yaml:"model"`
	Topics []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	// Text is the raw model output
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Markup string `json:"markup,omitempty" yaml:"markup,omitempty"`
	// Message is the text shown for every kind except rendered
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
}

// Failed reports whether the run ended without ideas for a reason other than an
// empty reply.
func (o Outcome) Failed() bool {
	switch o.Kind {
	case KindRendered, KindEmpty:
		return false
	default:
		return true
	}
}
