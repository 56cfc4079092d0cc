package alarms

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/alarmd/alarmd/internal/domain/alarm"
)

// TestFileRepository_Roundtrip saves a collection and loads it back.
func TestFileRepository_Roundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alarms.json")
	repo := NewFileRepository(path)

	repeat, err := domain.ParseDaySet("mon,wed")
	require.NoError(t, err)

	records := []*domain.Record{
		{
			ID:             "a1",
			TimeOfDay:      domain.TimeOfDay{Hour: 7, Minute: 30},
			RepeatDays:     repeat,
			Enabled:        true,
			SnoozeEnabled:  true,
			SnoozeDuration: 10,
			CreatedAt:      time.Unix(100, 0).UTC(),
			UpdatedAt:      time.Unix(200, 0).UTC(),
		},
		{
			ID:        "a2",
			TimeOfDay: domain.TimeOfDay{Hour: 22, Minute: 0},
		},
	}

	require.NoError(t, repo.SaveAll(context.Background(), records))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, records, loaded)
}

// TestFileRepository_MissingFile returns ErrNotFound before the first save.
func TestFileRepository_MissingFile(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "nope.json"))

	_, err := repo.LoadAll(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileRepository_SaveEmptyCollection writes an empty list, not null.
func TestFileRepository_SaveEmptyCollection(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alarms.json")
	repo := NewFileRepository(path)

	require.NoError(t, repo.SaveAll(context.Background(), nil))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(contents))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}
