package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"dgcreview/api/internal/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both tests exercise the same contract as the file backend against a real
// service and skip unless one is configured.

func TestPostgresBlobsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, databaseURL)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, ApplyMigrations(ctx, db))
	_, err = db.ExecContext(ctx, `DELETE FROM collections`)
	require.NoError(t, err)

	exerciseBlobs(t, New(NewPostgresBlobs(db), lock.NewLocal()))
}

func TestMinioBlobsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	blobs, err := NewMinioBlobs(ctx, MinioOptions{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("TEST_MINIO_SECRET_KEY"),
		Bucket:    "dgcreview-test",
		Prefix:    fmt.Sprintf("run-%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)

	exerciseBlobs(t, New(blobs, lock.NewLocal()))
}

func exerciseBlobs(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.LoadReviews(ctx)
	require.ErrorIs(t, err, ErrContentUnavailable)

	require.NoError(t, s.EnsureInitialized(ctx, CollectionReviews))
	reviews, err := s.LoadReviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	want := []Review{
		{ID: 1, Text: "Drink", Count: 1, GUID: "g-1"},
		{ID: 2, Text: "Drink\x00 twice", Note: "nul in text", GUID: "g-2"},
	}
	require.NoError(t, s.SaveReviews(ctx, want))
	got, err := s.LoadReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "reviews.json", objectKey("", CollectionReviews))
	assert.Equal(t, "deck/cards.json", objectKey("/deck/", CollectionCards))
}
