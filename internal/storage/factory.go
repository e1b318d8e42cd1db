package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

var ErrUnsupportedStore = errors.New("unsupported store backend")

// Kinds lists the backend names NewStore accepts.
func Kinds() []string {
	return []string{KindMemory, KindSQLite}
}

// ValidateKind reports whether kind names a known backend. An empty kind is
// accepted and selects memory.
func ValidateKind(kind string) error {
	switch normalizeKind(kind) {
	case "", KindMemory, KindSQLite:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStore, kind)
	}
}

// NewStore opens the backend named by kind. The sqlite backend needs the
// sqlite build tag; without it the error wraps ErrUnsupportedStore.
func NewStore(kind, sqlitePath string) (Store, error) {
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}
	if normalizeKind(kind) == KindSQLite {
		return newSQLiteStore(sqlitePath)
	}
	return NewMemoryStore(), nil
}

// CloseIfSupported closes stores holding external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(io.Closer)
	if !ok {
		return nil
	}
	return closer.Close()
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
