// Package docstore defines the document store used by every persistence
// backend: one JSON document per profile and one JSON array per collection,
// each carrying a version for compare-and-swap writes.
package docstore

import (
	"context"
	"errors"
	"strings"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// Document is a stored JSON body with its version. Version 0 means absent.
type Document struct {
	Key     string
	Data    []byte
	Version int64
}

// Store is implemented by the memory, S3, PostgreSQL and MongoDB backends.
type Store interface {
	// Get returns shared.ErrDocumentMissing when the key does not exist.
	Get(ctx context.Context, key string) (Document, error)

	// Put writes data only if the stored version equals expectedVersion.
	// expectedVersion 0 means "create, must not exist". On mismatch it
	// returns shared.ErrVersionConflict. It returns the new version.
	Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error)

	// Delete removes a document. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// List returns keys with the given prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Name identifies the backend in logs.
	Name() string
}

// Pinger is implemented by backends with a remote health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key layout.
const (
	StudentPrefix = "students/"
	EmailPrefix   = "emails/"
)

// EmailKey returns the key of the document that reserves an e-mail address
// for one profile.
func EmailKey(email string) string {
	return EmailPrefix + strings.ToLower(strings.TrimSpace(email))
}

// StudentKey returns the document key of a profile.
func StudentKey(id string) string {
	return StudentPrefix + id
}

// StudentIDFromKey strips the profile prefix.
func StudentIDFromKey(key string) string {
	return strings.TrimPrefix(key, StudentPrefix)
}

// CollectionKey returns the document key of a collection.
func CollectionKey(c school.Collection) string {
	return string(c)
}

// Persistence wraps a backend failure unless it already carries a domain kind.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrConcurrentModification) ||
		errors.Is(err, shared.ErrPersistence) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return shared.WrapError("store", op, shared.ErrPersistence, "document store failure", err)
}
