package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-fanout/internal/domain"
)

// Set DOCWORKER_TEST_POSTGRES_DSN to run these against a scratch database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DOCWORKER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCWORKER_TEST_POSTGRES_DSN not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestInvocationRepository_Integration(t *testing.T) {
	db := openTestDB(t)
	repo := NewInvocationRepository(db)
	ctx := context.Background()
	task := "doc-" + uuid.NewString()

	first := domain.NewInvocation("w-1", []byte(`{"name":"x"}`))
	first.TaskName = task
	first.Succeed(domain.ModeSplit, []byte(`{"children":[]}`))
	require.NoError(t, repo.Record(ctx, first))

	second := domain.NewInvocation("w-2", []byte(`"not json"`))
	second.TaskName = task
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	second.Fail(domain.ModeMerge, domain.ErrMissingChildOutput)
	require.NoError(t, repo.Record(ctx, second))

	t.Cleanup(func() {
		db.Where("task_name = ?", task).Delete(&domain.Invocation{})
	})

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvocationSucceeded, got.Status)
	assert.JSONEq(t, `{"children":[]}`, string(got.Result))

	list, err := repo.ListByTask(ctx, task, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, domain.KindMissingChildOutput, list[0].ErrorKind)

	list, err = repo.ListByTask(ctx, task, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
