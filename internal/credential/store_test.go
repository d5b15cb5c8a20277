package credential

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default", "credentials.json")
	store := NewFileStore(path)

	if _, ok, err := store.Get(StorageKey); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(StorageKey, "AIza-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get(StorageKey)
	if err != nil || !ok || got != "AIza-123" {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat credentials: %v", err)
	}
	if perm := info.Mode().Perm(); perm != defaultFilePerm {
		t.Fatalf("expected file perm %o, got %o", defaultFilePerm, perm)
	}
	dirInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if perm := dirInfo.Mode().Perm(); perm != defaultDirPerm {
		t.Fatalf("expected dir perm %o, got %o", defaultDirPerm, perm)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if values[StorageKey] != "AIza-123" {
		t.Fatalf("unexpected file contents: %s", raw)
	}
}

func TestFileStoreDeleteKeepsOtherKeys(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := store.Set("other", "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(StorageKey, "y"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(StorageKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete("never-set"); err != nil {
		t.Fatalf("Delete missing key: %v", err)
	}

	if _, ok, _ := store.Get(StorageKey); ok {
		t.Fatalf("expected %s to be removed", StorageKey)
	}
	if v, ok, _ := store.Get("other"); !ok || v != "x" {
		t.Fatalf("expected other key to survive, got %q %v", v, ok)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NewFileStore(path).Get(StorageKey); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFileStoreExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IDEAMIXER_TEST_DIR", dir)

	store := NewFileStore("$IDEAMIXER_TEST_DIR/credentials.json")
	if store.Path() != filepath.Join(dir, "credentials.json") {
		t.Fatalf("unexpected path %s", store.Path())
	}
}

type failingStore struct {
	*MemoryStore
	err error
}

func (f *failingStore) Set(string, string) error { return f.err }

func TestSessionLifecycle(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(StorageKey, "  stored-key ")

	s := NewSession(store)
	if err := s.Load(""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := s.Value(); !ok || v != "stored-key" {
		t.Fatalf("Value = %q, %v", v, ok)
	}
	if s.Status() != "API Key Loaded (from storage)" {
		t.Fatalf("unexpected status %q", s.Status())
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := s.Value(); ok {
		t.Fatal("expected cleared credential")
	}
	if _, ok, _ := store.Get(StorageKey); ok {
		t.Fatal("expected credential removed from store")
	}
	if s.Status() != "API Key Not Set" {
		t.Fatalf("unexpected status %q", s.Status())
	}

	if err := s.Set("typed-key"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _, _ := store.Get(StorageKey); v != "typed-key" {
		t.Fatalf("expected typed key persisted, got %q", v)
	}
	if s.Source() != SourcePrompt {
		t.Fatalf("unexpected source %q", s.Source())
	}
	if s.Status() != "API Key Loaded (from user input)" {
		t.Fatalf("unexpected status %q", s.Status())
	}

	if err := s.Invalidate(); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if s.Status() != "API Key Invalid. Please re-enter." {
		t.Fatalf("unexpected status %q", s.Status())
	}
	if _, ok, _ := store.Get(StorageKey); ok {
		t.Fatal("expected invalid credential removed from store")
	}
}

func TestSessionOverrideIsNotPersisted(t *testing.T) {
	store := NewMemoryStore()
	s := NewSession(store)
	if err := s.Load("from-env"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := s.Value(); v != "from-env" {
		t.Fatalf("Value = %q", v)
	}
	if s.Status() != "API Key Loaded (from config)" {
		t.Fatalf("unexpected status %q", s.Status())
	}
	if _, ok, _ := store.Get(StorageKey); ok {
		t.Fatal("override must not be written to the store")
	}
}

func TestSessionSetCachesEvenWhenStoreFails(t *testing.T) {
	boom := errors.New("disk full")
	s := NewSession(&failingStore{MemoryStore: NewMemoryStore(), err: boom})

	if err := s.Set("k"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if v, ok := s.Value(); !ok || v != "k" {
		t.Fatalf("expected cached value, got %q %v", v, ok)
	}
}

func TestSessionInvalidateKeepsStoredKeyForOverride(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(StorageKey, "stored-key")

	s := NewSession(store)
	if err := s.Load("from-env"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Invalidate(); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := s.Value(); ok {
		t.Fatal("expected rejected override dropped from memory")
	}
	if s.Status() != "API Key Invalid. Please re-enter." {
		t.Fatalf("unexpected status %q", s.Status())
	}
	if v, ok, _ := store.Get(StorageKey); !ok || v != "stored-key" {
		t.Fatalf("expected stored key kept, got %q %v", v, ok)
	}

	// an explicit clear still removes it
	if err := s.Load("from-env"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.Get(StorageKey); ok {
		t.Fatal("expected credential removed from store")
	}
}

func TestSessionInvalidateRemovesStoredKey(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(StorageKey, "stored-key")

	s := NewSession(store)
	if err := s.Load(""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Invalidate(); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := store.Get(StorageKey); ok {
		t.Fatal("expected rejected credential removed from store")
	}
}
