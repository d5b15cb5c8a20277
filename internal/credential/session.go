package credential

import (
	"strings"
	"sync"
)

// StorageKey is the store key holding the Gemini API key
const StorageKey = "geminiApiKey"

// Source records where the cached credential came from.
type Source string

const (
	SourceNone    Source = ""
	SourceStorage Source = "storage"
	SourceConfig  Source = "config"
	SourcePrompt  Source = "prompt"
)

// Session caches the API key for the life of the process and writes it through to
// the Store. It is safe for concurrent use.
type Session struct {
	store Store
	key   string

	mu          sync.RWMutex
	value       string
	source      Source
	invalidated bool
}

// NewSession builds a session over store. A nil store keeps the credential in memory only.
func NewSession(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store, key: StorageKey}
}

// Load reads the stored credential once. An override, when non-blank, wins
// and is never written back.
func (s *Session) Load(override string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := strings.TrimSpace(override); v != "" {
		s.value, s.source = v, SourceConfig
		return nil
	}
	v, ok, err := s.store.Get(s.key)
	if err != nil {
		return err
	}
	if ok && strings.TrimSpace(v) != "" {
		s.value, s.source = strings.TrimSpace(v), SourceStorage
	}
	return nil
}

// Value returns the cached credential.
func (s *Session) Value() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.value != ""
}

// Source reports where the cached credential came from.
func (s *Session) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Set caches value and persists it. The cache is updated even when persisting fails.
func (s *Session) Set(value string) error {
	value = strings.TrimSpace(value)
	s.mu.Lock()
	s.value, s.source, s.invalidated = value, SourcePrompt, false
	s.mu.Unlock()
	return s.store.Set(s.key, value)
}

// Clear drops the credential from memory and from the store.
func (s *Session) Clear() error {
	return s.clear(false)
}

// Invalidate is Clear for a credential the remote service rejected. A rejected
// override was never read from the store, so the stored credential is kept.
func (s *Session) Invalidate() error {
	return s.clear(true)
}

func (s *Session) clear(invalid bool) error {
	s.mu.Lock()
	source := s.source
	s.value, s.source, s.invalidated = "", SourceNone, invalid
	s.mu.Unlock()
	if invalid && source == SourceConfig {
		return nil
	}
	return s.store.Delete(s.key)
}

// Status is the one line summary shown next to the form.
func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.value == "" && s.invalidated:
		return "API Key Invalid. Please re-enter."
	case s.value == "":
		return "API Key Not Set"
	case s.source == SourceStorage:
		return "API Key Loaded (from storage)"
	case s.source == SourceConfig:
		return "API Key Loaded (from config)"
	default:
		return "API Key Loaded (from user input)"
	}
}
