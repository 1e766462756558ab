// Package repositorytest holds the behaviour every repository backend must
// share, run against a real database by each backend's tests.
package repositorytest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ruediste/diy-dc-converter/internal/repository"
	"github.com/ruediste/diy-dc-converter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises repo. It expects an empty, migrated database.
func Run(t *testing.T, repo repository.Repository) {
	t.Run("state", func(t *testing.T) { testState(t, repo) })
	t.Run("exports", func(t *testing.T) { testExports(t, repo) })
}

func testState(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	session := uuid.New().String()

	_, err := repo.Load(ctx, session, "cot")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Save(ctx, session, "cot", []byte(`{"inSteps":5}`)))
	data, err := repo.Load(ctx, session, "cot")
	require.NoError(t, err)
	assert.JSONEq(t, `{"inSteps":5}`, string(data))

	// upsert
	require.NoError(t, repo.Save(ctx, session, "cot", []byte(`{"inSteps":7}`)))
	data, err = repo.Load(ctx, session, "cot")
	require.NoError(t, err)
	assert.JSONEq(t, `{"inSteps":7}`, string(data))

	// tools and sessions are isolated
	_, err = repo.Load(ctx, session, "firstConverter")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.Load(ctx, uuid.New().String(), "cot")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, session, "cot"))
	_, err = repo.Load(ctx, session, "cot")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, repo.Delete(ctx, session, "cot"))
}

func testExports(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	session := uuid.New().String()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := &models.ChartExport{
		ID:        uuid.New(),
		SessionID: session,
		Tool:      "cot",
		Graph:     "maxOutputCurrent",
		Format:    "png",
		ObjectKey: "charts/a.png",
		CreatedAt: base,
	}
	newer := &models.ChartExport{
		ID:        uuid.New(),
		SessionID: session,
		Tool:      "cot",
		Graph:     "chargeTime",
		Format:    "html",
		ObjectKey: "charts/b.html",
		CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, repo.CreateExport(ctx, older))
	require.NoError(t, repo.CreateExport(ctx, newer))

	got, err := repo.GetExport(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ObjectKey, got.ObjectKey)
	assert.Equal(t, older.Graph, got.Graph)
	assert.True(t, older.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.GetExport(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.ListExports(ctx, session)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	list, err = repo.ListExports(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, list)
}
