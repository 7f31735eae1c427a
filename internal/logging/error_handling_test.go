package logging

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE networks (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	return db
}

func countNetworks(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM networks`).Scan(&n))
	return n
}

func TestSafeCloseWithLogging(t *testing.T) {
	t.Run("closes a log file without logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelDebug)

		f, err := os.Create(filepath.Join(t.TempDir(), "open_transit_test.log"))
		require.NoError(t, err)

		SafeCloseWithLogging(f, logger, "log_file_close")

		assert.Empty(t, buf.String())
		_, err = f.Write([]byte("late"))
		assert.Error(t, err, "file should be closed")
	})

	t.Run("logs error when close fails", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeCloseWithLogging(&errorCloser{err: assert.AnError}, logger, "catalog_database_close")

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"failed to close resource"`)
		assert.Contains(t, output, `"operation":"catalog_database_close"`)
		assert.Contains(t, output, `"component":"resource_management"`)
	})

	t.Run("nil closer is ignored", func(t *testing.T) {
		var buf bytes.Buffer
		SafeCloseWithLogging(nil, NewStructuredLogger(&buf, slog.LevelInfo), "noop")
		assert.Empty(t, buf.String())
	})
}

func TestSafeRollbackWithLogging(t *testing.T) {
	ctx := context.Background()

	t.Run("rolls back an open transaction", func(t *testing.T) {
		db := openTestDB(t)
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		_, err = tx.ExecContext(ctx, `INSERT INTO networks (id, name) VALUES ('n1', 'CityBus')`)
		require.NoError(t, err)

		SafeRollbackWithLogging(tx, logger, "import_catalog")

		assert.Empty(t, buf.String())
		assert.Equal(t, 0, countNetworks(t, db))
	})

	t.Run("deferred rollback after commit stays silent", func(t *testing.T) {
		db := openTestDB(t)
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		write := func() error {
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer SafeRollbackWithLogging(tx, logger, "import_catalog")

			if _, err := tx.ExecContext(ctx, `INSERT INTO networks (id, name) VALUES ('n1', 'CityBus')`); err != nil {
				return err
			}
			return tx.Commit()
		}

		require.NoError(t, write())
		assert.Empty(t, buf.String())
		assert.Equal(t, 1, countNetworks(t, db))
	})

	t.Run("deferred rollback undoes a rejected insert", func(t *testing.T) {
		db := openTestDB(t)
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		write := func() error {
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer SafeRollbackWithLogging(tx, logger, "import_catalog")

			for _, id := range []string{"n1", "n2"} {
				if _, err := tx.ExecContext(ctx, `INSERT INTO networks (id, name) VALUES (?, 'CityBus')`, id); err != nil {
					return err
				}
			}
			return tx.Commit()
		}

		assert.Error(t, write(), "duplicate network name")
		assert.Empty(t, buf.String())
		assert.Equal(t, 0, countNetworks(t, db))
	})

	t.Run("logs rollback failures", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeRollbackWithLogging(&failingRollback{err: assert.AnError}, logger, "import_catalog")

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"failed to rollback transaction"`)
		assert.Contains(t, output, `"operation":"import_catalog"`)
		assert.Contains(t, output, `"component":"database"`)
	})
}

func TestHandleDeferredError(t *testing.T) {
	t.Run("deferred failure becomes the result", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		download := func() (err error) {
			defer HandleDeferredError(&err, func() error {
				return assert.AnError
			}, logger, "close_response_body")
			return nil
		}

		err := download()
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "close_response_body failed")
		assert.Contains(t, buf.String(), `"msg":"deferred operation failed"`)
	})

	t.Run("first error wins", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)
		notFound := errors.New("unexpected status 404")

		download := func() (err error) {
			defer HandleDeferredError(&err, func() error {
				return assert.AnError
			}, logger, "close_response_body")
			return notFound
		}

		err := download()
		assert.Equal(t, notFound, err)
		assert.Contains(t, buf.String(), `"operation":"close_response_body"`)
	})

	t.Run("successful cleanup keeps the result", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		download := func() (err error) {
			defer HandleDeferredError(&err, func() error { return nil }, logger, "close_response_body")
			return nil
		}

		assert.NoError(t, download())
		assert.Empty(t, buf.String())
	})
}

type errorCloser struct {
	err error
}

func (e *errorCloser) Close() error {
	return e.err
}

type failingRollback struct {
	err error
}

func (f *failingRollback) Rollback() error {
	return f.err
}
