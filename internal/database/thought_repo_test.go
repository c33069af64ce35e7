package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/store"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

var _ store.ThoughtStore = (*ThoughtRepository)(nil)

// Runs only against a disposable database named by TEST_DATABASE_URL.
func TestThoughtRepositoryRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, url, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.CreateTables(ctx))

	repo := NewThoughtRepository(db)
	th := &models.Thought{
		ID:         uuid.New().String(),
		RawText:    "ship the release notes",
		Category:   taxonomy.Task,
		LegacyType: taxonomy.TypeTask,
		Priority:   models.PriorityHigh,
		Title:      "Release notes",
		Actions:    []string{"draft", "review"},
		Source:     "web",
		CreatedAt:  time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Save(ctx, th))
	require.NoError(t, repo.Save(ctx, th))

	page, total, err := repo.List(ctx, 1, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 1)
	require.Len(t, page, 1)
	assert.Equal(t, th.ID, page[0].ID)
	assert.Equal(t, taxonomy.Task, page[0].Category)
	assert.Equal(t, []string{"draft", "review"}, page[0].Actions)

	_, err = db.Pool.Exec(ctx, `DELETE FROM thoughts WHERE id = $1`, th.ID)
	require.NoError(t, err)
}

func TestSourceColumnIsUnbounded(t *testing.T) {
	assert.Contains(t, thoughtsTable, "source TEXT NOT NULL")
	assert.Contains(t, thoughtsTable, "ALTER COLUMN source TYPE TEXT")
}

func TestThoughtRepositoryLongSource(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, url, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.CreateTables(ctx))

	th := &models.Thought{
		ID:         uuid.New().String(),
		RawText:    "imported from a long named integration",
		Category:   taxonomy.Note,
		LegacyType: taxonomy.TypeReflection,
		Priority:   models.PriorityMedium,
		Source:     strings.Repeat("s", 200),
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, NewThoughtRepository(db).Save(ctx, th))

	_, err = db.Pool.Exec(ctx, `DELETE FROM thoughts WHERE id = $1`, th.ID)
	require.NoError(t, err)
}
