package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"prboard/internal/domain/model"
)

// newTestDB opens a migrated in-memory database scoped to the calling test.
// cache=shared lets the writer and reader pools see the same data, and the
// t.Name()-derived URI filename keeps parallel tests apart (percent-encoded
// so subtest slashes cannot leak into the DSN's query string). WAL does not
// apply in memory, so that pragma is dropped from the usual DSN.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)

	writer, err := openPool(dsn, 1)
	require.NoError(t, err, "open test writer")

	reader, err := openPool(dsn, readerPoolSize)
	if err != nil {
		_ = writer.Close()
	}
	require.NoError(t, err, "open test reader")

	db := &DB{Writer: writer, Reader: reader, path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer), "migrate test db")

	return db
}

// seedRepo inserts one tracked repository for tests that need a parent row.
func seedRepo(t *testing.T, db *DB) model.Repository {
	t.Helper()
	created, err := NewRepoRepo(db).Create(context.Background(), makeRepo("octocat", "hello-world"))
	require.NoError(t, err)
	return created
}

// seedPR inserts a repository and one PR under it, returning the stored PR.
func seedPR(t *testing.T, db *DB) model.PullRequest {
	t.Helper()
	repo := seedRepo(t, db)
	stored, err := NewPRRepo(db).Upsert(context.Background(), makePR(repo.ID, 1))
	require.NoError(t, err)
	return stored
}
