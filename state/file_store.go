package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	entryStoreSuffix = "_workentrystore.json"
	ledgerSuffix     = "_worklogstore.json"
)

// FileBackend keeps both records as indented JSON files next to each other.
type FileBackend struct {
	entryStorePath string
	ledgerPath     string
}

func OpenFileBackend(dir, prefix string) (*FileBackend, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, errors.New("state prefix is required")
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %q: %w", dir, err)
	}
	return &FileBackend{
		entryStorePath: filepath.Join(dir, prefix+entryStoreSuffix),
		ledgerPath:     filepath.Join(dir, prefix+ledgerSuffix),
	}, nil
}

func (b *FileBackend) EntryStorePath() string { return b.entryStorePath }

func (b *FileBackend) LedgerPath() string { return b.ledgerPath }

func (b *FileBackend) LoadEntryStore(ctx context.Context) (*EntryStore, error) {
	store := NewEntryStore()
	found, err := readJSON(b.entryStorePath, store)
	if err != nil {
		return nil, err
	}
	if !found {
		return NewEntryStore(), nil
	}
	store.normalize()
	return store, nil
}

func (b *FileBackend) SaveEntryStore(ctx context.Context, store *EntryStore) error {
	return writeJSONAtomic(b.entryStorePath, store)
}

func (b *FileBackend) LoadLedger(ctx context.Context) (*Ledger, error) {
	ledger := NewLedger()
	found, err := readJSON(b.ledgerPath, ledger)
	if err != nil {
		return nil, err
	}
	if !found {
		return NewLedger(), nil
	}
	ledger.normalize()
	return ledger, nil
}

func (b *FileBackend) SaveLedger(ctx context.Context, ledger *Ledger) error {
	return writeJSONAtomic(b.ledgerPath, ledger)
}

func (b *FileBackend) Close() error {
	return nil
}

func readJSON(path string, out any) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read state file %s: %w", path, err)
	}
	if err := json.Unmarshal(content, out); err != nil {
		return false, fmt.Errorf("decode state file %s: %w", path, err)
	}
	return true, nil
}

func writeJSONAtomic(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := writeSynced(tmp, append(data, '\n')); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp state file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state file %s: %w", path, err)
	}
	return nil
}

// writeSynced flushes data to disk before returning so a rename never
// exposes a partially written file after a crash.
func writeSynced(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
