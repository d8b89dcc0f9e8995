package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/models"
)

const (
	// IDFile holds the ids of completely downloaded posts
	IDFile = "ExploreID.db"
	// DataFile holds post snapshots
	DataFile = "ExploreData.db"
)

// ErrClosed is returned by writes after Close
var ErrClosed = errors.New("record store is closed")

const idSchema = `
CREATE TABLE IF NOT EXISTS explore_id (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
)`

const dataSchema = `
CREATE TABLE IF NOT EXISTS explore_data (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Options selects which records are kept
type Options struct {
	// Root is the directory the database files live in
	Root string
	// DownloadRecord enables the completed-post ids
	DownloadRecord bool
	// RecordData enables post snapshots
	RecordData bool
}

// writeOp is one statement for the writer goroutine
type writeOp struct {
	db    *sqlx.DB
	query string
	args  []interface{}
	done  chan error
}

// Store persists completed post ids and, optionally, post snapshots.
// Reads go straight to the database; writes are serialised through a
// single writer goroutine.
type Store struct {
	ids  *sqlx.DB
	data *sqlx.DB

	mu     sync.RWMutex
	closed bool
	writes chan writeOp
	done   chan struct{}
	once   sync.Once

	logger logger.Logger
}

// Open opens or creates the enabled databases below opts.Root. With both
// features disabled no file is touched.
func Open(ctx context.Context, opts Options, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Store{
		writes: make(chan writeOp),
		done:   make(chan struct{}),
		logger: log.WithField("component", "record_store"),
	}

	if opts.DownloadRecord || opts.RecordData {
		if err := os.MkdirAll(opts.Root, 0755); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to create record directory")
		}
	}

	var err error
	if opts.DownloadRecord {
		if s.ids, err = openDB(ctx, filepath.Join(opts.Root, IDFile), idSchema); err != nil {
			return nil, err
		}
	}
	if opts.RecordData {
		if s.data, err = openDB(ctx, filepath.Join(opts.Root, DataFile), dataSchema); err != nil {
			s.closeDBs()
			return nil, err
		}
	}

	go s.writer()

	logger.LogComponentStart(s.logger, "record_store", map[string]interface{}{
		"root":            opts.Root,
		"download_record": opts.DownloadRecord,
		"record_data":     opts.RecordData,
	})
	return s, nil
}

func openDB(ctx context.Context, path, schema string) (*sqlx.DB, error) {
	dsn := "file:" + filepath.ToSlash(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to open "+filepath.Base(path))
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to initialise "+filepath.Base(path))
	}
	return db, nil
}

// Enabled reports whether completed posts are recorded
func (s *Store) Enabled() bool {
	return s.ids != nil
}

// RecordsData reports whether snapshots are kept
func (s *Store) RecordsData() bool {
	return s.data != nil
}

// Has reports whether id was recorded as completely downloaded. It only
// looks at ids, never at snapshots. A disabled store always answers false.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	if s.ids == nil {
		return false, nil
	}
	var one int
	err := s.ids.GetContext(ctx, &one, `SELECT 1 FROM explore_id WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypeStorage, err, "failed to query download record")
	}
	return true, nil
}

// Mark records id as completely downloaded. Marking twice is a no-op.
// A snapshot is kept too when snapshots are enabled. A disabled store
// ignores the call.
func (s *Store) Mark(ctx context.Context, id string, snapshot *models.Post) error {
	if s.ids == nil {
		return nil
	}
	err := s.submit(ctx, s.ids, `INSERT OR IGNORE INTO explore_id (id, created_at) VALUES (?, ?)`, id, time.Now().Unix())
	if err != nil {
		return err
	}
	if snapshot != nil {
		return s.SaveData(ctx, snapshot)
	}
	return nil
}

// SaveData stores the latest snapshot of a post when snapshots are enabled
func (s *Store) SaveData(ctx context.Context, post *models.Post) error {
	if s.data == nil || post == nil {
		return nil
	}
	body, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.submit(ctx, s.data, `
		INSERT INTO explore_data (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		post.ID, string(body), time.Now().Unix())
}

// Snapshot loads the stored snapshot of a post. The boolean is false when
// none is stored.
func (s *Store) Snapshot(ctx context.Context, id string) (*models.Post, bool, error) {
	if s.data == nil {
		return nil, false, nil
	}
	var body string
	err := s.data.GetContext(ctx, &body, `SELECT data FROM explore_data WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrorTypeStorage, err, "failed to load snapshot")
	}

	var post models.Post
	if err := json.Unmarshal([]byte(body), &post); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return &post, true, nil
}

// Delete forgets a post so the next run downloads it again
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.ids != nil {
		if err := s.submit(ctx, s.ids, `DELETE FROM explore_id WHERE id = ?`, id); err != nil {
			return err
		}
	}
	if s.data != nil {
		if err := s.submit(ctx, s.data, `DELETE FROM explore_data WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for pending writes and closes the databases. It is safe to
// call more than once.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.writes)
		s.mu.Unlock()

		<-s.done
		err = s.closeDBs()
		logger.LogComponentStop(s.logger, "record_store", "closed")
	})
	return err
}

func (s *Store) closeDBs() error {
	var result error
	for _, db := range []*sqlx.DB{s.ids, s.data} {
		if db != nil {
			if err := db.Close(); err != nil {
				result = errors.Join(result, err)
			}
		}
	}
	return result
}

// submit hands a statement to the writer and waits for its result
func (s *Store) submit(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) error {
	op := writeOp{db: db, query: query, args: args, done: make(chan error, 1)}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	select {
	case s.writes <- op:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writer applies statements one at a time until the queue is closed
func (s *Store) writer() {
	defer close(s.done)
	for op := range s.writes {
		_, err := op.db.Exec(op.query, op.args...)
		if err != nil {
			s.logger.WithError(err).Error("Record write failed")
			err = errs.Wrap(errs.ErrorTypeStorage, err, "failed to write record")
		}
		op.done <- err
	}
}
