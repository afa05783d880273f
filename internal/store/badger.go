package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/planward/internal/store"

// Config configures the badger-backed store.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites forces durable writes. Defaults on for persistent
	// databases.
	SyncWrites bool
}

// DefaultConfig returns production defaults rooted at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a config for tests: no disk I/O, no sync.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerStore implements Store on an embedded BadgerDB.
type badgerStore struct {
	db     *badger.DB
	logger *zap.Logger

	tracer       trace.Tracer
	meter        metric.Meter
	writeCounter metric.Int64Counter
}

// Open opens (or creates) the store described by cfg.
func Open(cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &badgerStore{
		db:     db,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	s.initMetrics()
	return s, nil
}

func (s *badgerStore) initMetrics() {
	var err error
	s.writeCounter, err = s.meter.Int64Counter(
		"planward.store.writes_total",
		metric.WithDescription("Total number of store writes"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		s.logger.Warn("failed to create write counter", zap.Error(err))
	}
}

func sessionKey(id string) []byte {
	return []byte("session/" + id)
}

func artifactKey(sessionID, path string) []byte {
	return []byte("artifact/" + sessionID + "/" + path)
}

func (s *badgerStore) SaveSession(ctx context.Context, id string, snapshot []byte) error {
	ctx, span := s.tracer.Start(ctx, "store.save_session")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id))

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(id), snapshot)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("save session %s: %w", id, err)
	}
	if s.writeCounter != nil {
		s.writeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "session")))
	}
	return nil
}

func (s *badgerStore) LoadSession(ctx context.Context, id string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "store.load_session")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id))

	var snapshot []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		snapshot, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return snapshot, nil
}

func (s *badgerStore) ListSessions(ctx context.Context) ([]string, error) {
	_, span := s.tracer.Start(ctx, "store.list_sessions")
	defer span.End()

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte("session/")})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, "session/"))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

func (s *badgerStore) DeleteSession(ctx context.Context, id string) error {
	_, span := s.tracer.Start(ctx, "store.delete_session")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id))

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(sessionKey(id)); err != nil {
			return err
		}
		prefix := []byte("artifact/" + id + "/")
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	s.logger.Info("deleted session", zap.String("session_id", id))
	return nil
}

func (s *badgerStore) PutArtifact(ctx context.Context, sessionID, path string, content []byte) error {
	ctx, span := s.tracer.Start(ctx, "store.put_artifact")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("path", path),
	)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(artifactKey(sessionID, path), content)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("put artifact %s: %w", path, err)
	}
	if s.writeCounter != nil {
		s.writeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "artifact")))
	}
	return nil
}

func (s *badgerStore) GetArtifact(ctx context.Context, sessionID, path string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "store.get_artifact")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("path", path),
	)

	var content []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey(sessionID, path))
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("artifact %s: %w", path, ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get artifact %s: %w", path, err)
	}
	return content, nil
}

func (s *badgerStore) ListArtifacts(ctx context.Context, sessionID string) ([]string, error) {
	_, span := s.tracer.Start(ctx, "store.list_artifacts")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))

	prefix := "artifact/" + sessionID + "/"
	var paths []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			paths = append(paths, strings.TrimPrefix(key, prefix))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return paths, nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
