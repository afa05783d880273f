package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session record or artifact does not
// exist.
var ErrNotFound = errors.New("not found")

// Store persists session records and artifact bodies. Session records are
// JSON snapshots keyed by session ID; artifact bodies are kept under
// per-node keys so large contents don't bloat the session record.
type Store interface {
	// SaveSession writes the JSON snapshot for a session.
	SaveSession(ctx context.Context, id string, snapshot []byte) error

	// LoadSession reads a session snapshot, or ErrNotFound.
	LoadSession(ctx context.Context, id string) ([]byte, error)

	// ListSessions returns all persisted session IDs.
	ListSessions(ctx context.Context) ([]string, error)

	// DeleteSession removes a session record and all its artifacts.
	DeleteSession(ctx context.Context, id string) error

	// PutArtifact writes one artifact body for a node path.
	PutArtifact(ctx context.Context, sessionID, path string, content []byte) error

	// GetArtifact reads one artifact body, or ErrNotFound.
	GetArtifact(ctx context.Context, sessionID, path string) ([]byte, error)

	// ListArtifacts returns the node paths with stored bodies.
	ListArtifacts(ctx context.Context, sessionID string) ([]string, error)

	// Close releases the backing database.
	Close() error
}
