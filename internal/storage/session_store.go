package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"studytimer/internal/core/model"
	"studytimer/internal/platform"

	"fyne.io/fyne/v2"
)

// SessionKey is the fixed key the snapshot is stored under.
const SessionKey = "timer_session"

const sessionFileName = "session.json"

// SessionStore persists the single timer snapshot. Save overwrites, Clear is
// idempotent, and Load reports a malformed payload as *model.CorruptStateError.
type SessionStore interface {
	Save(snapshot model.Snapshot) error
	Load() (model.Snapshot, bool, error)
	Clear() error
}

// PreferencesStore keeps the snapshot in the fyne application preferences.
type PreferencesStore struct {
	prefs fyne.Preferences
}

// NewPreferencesStore wraps the given preferences.
func NewPreferencesStore(prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{prefs: prefs}
}

// Save writes the snapshot under SessionKey.
func (store *PreferencesStore) Save(snapshot model.Snapshot) error {
	data, err := model.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	store.prefs.SetString(SessionKey, string(data))
	return nil
}

// Load reads the snapshot. A missing key is reported as absent.
func (store *PreferencesStore) Load() (model.Snapshot, bool, error) {
	raw := store.prefs.String(SessionKey)
	if raw == "" {
		return model.Snapshot{}, false, nil
	}
	snapshot, err := model.DecodeSnapshot([]byte(raw))
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Clear removes the key.
func (store *PreferencesStore) Clear() error {
	store.prefs.RemoveValue(SessionKey)
	return nil
}

// FileStore keeps the snapshot in a JSON file replaced atomically on save.
type FileStore struct {
	path string
}

// NewFileStore stores the snapshot at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NewDefaultFileStore stores the snapshot in the user config directory for appName.
func NewDefaultFileStore(appName string) (*FileStore, error) {
	configDir, err := platform.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewFileStore(filepath.Join(configDir, appName, sessionFileName)), nil
}

// Path returns the snapshot file location.
func (store *FileStore) Path() string {
	return store.path
}

// Save replaces the snapshot file.
func (store *FileStore) Save(snapshot model.Snapshot) error {
	data, err := model.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(store.path, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing file is reported as absent.
func (store *FileStore) Load() (model.Snapshot, bool, error) {
	data, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("read session file: %w", err)
	}
	snapshot, err := model.DecodeSnapshot(data)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Clear deletes the snapshot file.
func (store *FileStore) Clear() error {
	if err := os.Remove(store.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the encoded snapshot in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the stored snapshot.
func (store *MemoryStore) Save(snapshot model.Snapshot) error {
	data, err := model.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	store.mu.Lock()
	store.data = data
	store.mu.Unlock()
	return nil
}

// Load decodes the stored snapshot.
func (store *MemoryStore) Load() (model.Snapshot, bool, error) {
	store.mu.Lock()
	data := store.data
	store.mu.Unlock()
	if data == nil {
		return model.Snapshot{}, false, nil
	}
	snapshot, err := model.DecodeSnapshot(data)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Clear forgets the stored snapshot.
func (store *MemoryStore) Clear() error {
	store.mu.Lock()
	store.data = nil
	store.mu.Unlock()
	return nil
}

// SetRaw stores an arbitrary payload, bypassing encoding.
func (store *MemoryStore) SetRaw(data []byte) {
	store.mu.Lock()
	store.data = append([]byte(nil), data...)
	store.mu.Unlock()
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}
