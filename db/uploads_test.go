// ABOUTME: Tests for the persisted photo upload queue
// ABOUTME: Round-trips entries through an in-memory database
package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markahope-aag/hazardos-sub000/models"
)

func newUploadStore(t *testing.T) *UploadQueueStore {
	t.Helper()
	conn, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewUploadQueueStore(conn)
}

func entry(survey, photo string, state models.UploadState, created time.Time) models.UploadEntry {
	return models.UploadEntry{
		SurveyID:  survey,
		PhotoID:   photo,
		State:     state,
		Photo:     models.PhotoRecord{ID: photo, Data: []byte{0xff, 0xd8}, Category: models.PhotoExterior},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestUploadQueueSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newUploadStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	next := base.Add(time.Minute)
	failed := entry("s1", "p2", models.UploadFailed, base.Add(time.Second))
	failed.AttemptCount = 5
	failed.LastError = "connection reset"
	failed.NextAttemptAt = &next

	require.NoError(t, store.SaveEntry(ctx, entry("s1", "p1", models.UploadPending, base)))
	require.NoError(t, store.SaveEntry(ctx, failed))

	entries, err := store.LoadEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "p1", entries[0].PhotoID)
	assert.Equal(t, []byte{0xff, 0xd8}, entries[0].Photo.Data)
	assert.Nil(t, entries[0].NextAttemptAt)

	got := entries[1]
	assert.Equal(t, models.UploadFailed, got.State)
	assert.Equal(t, 5, got.AttemptCount)
	assert.Equal(t, "connection reset", got.LastError)
	require.NotNil(t, got.NextAttemptAt)
	assert.True(t, next.Equal(*got.NextAttemptAt))
}

func TestUploadQueueUpsert(t *testing.T) {
	ctx := context.Background()
	store := newUploadStore(t)
	now := time.Now().UTC()

	e := entry("s1", "p1", models.UploadPending, now)
	require.NoError(t, store.SaveEntry(ctx, e))

	e.State = models.UploadUploaded
	e.RemoteURL = "https://cdn.example.com/p1.jpg"
	e.Photo.Data = nil
	require.NoError(t, store.SaveEntry(ctx, e))

	entries, err := store.LoadEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.UploadUploaded, entries[0].State)
	assert.Equal(t, "https://cdn.example.com/p1.jpg", entries[0].RemoteURL)
	assert.Empty(t, entries[0].Photo.Data)
}

func TestUploadQueueDeleteAndCount(t *testing.T) {
	ctx := context.Background()
	store := newUploadStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.SaveEntry(ctx, entry("s1", "p1", models.UploadPending, now)))
	require.NoError(t, store.SaveEntry(ctx, entry("s1", "p2", models.UploadFailed, now)))
	require.NoError(t, store.SaveEntry(ctx, entry("s1", "p3", models.UploadFailed, now)))
	require.NoError(t, store.SaveEntry(ctx, entry("s2", "p4", models.UploadPending, now)))

	counts, err := store.CountByState(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[models.UploadState]int{models.UploadPending: 1, models.UploadFailed: 2}, counts)

	require.NoError(t, store.DeleteEntry(ctx, "s1", "p2"))
	require.NoError(t, store.DeleteEntry(ctx, "s1", "missing"))
	require.NoError(t, store.DeleteSurveyEntries(ctx, "s1"))

	entries, err := store.LoadEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s2", entries[0].SurveyID)
}

func TestUploadQueuePruneUploaded(t *testing.T) {
	ctx := context.Background()
	store := newUploadStore(t)
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(48 * time.Hour)

	require.NoError(t, store.SaveEntry(ctx, entry("s1", "old", models.UploadUploaded, old)))
	require.NoError(t, store.SaveEntry(ctx, entry("s1", "new", models.UploadUploaded, recent)))
	require.NoError(t, store.SaveEntry(ctx, entry("s1", "pending", models.UploadPending, old)))

	n, err := store.PruneUploaded(ctx, old.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := store.LoadEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
