package mesh

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]PlanStore {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := OpenPlanStore(StoreConfig{Driver: "sqlite", Path: filepath.Join(dir, "db", "plans.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	file, err := OpenPlanStore(StoreConfig{Driver: "file", Path: filepath.Join(dir, "plans.json")})
	require.NoError(t, err)

	return map[string]PlanStore{"file": file, "sqlite": sqlite}
}

func TestPlanStore_SaveGetListDelete(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			older := twoRoomPlan()
			newer := SamplePlan()
			newer.ID = "sample-1"
			newer.CreatedAt = older.CreatedAt.Add(24 * time.Hour)

			require.NoError(t, store.Save(ctx, older))
			require.NoError(t, store.Save(ctx, newer))

			got, err := store.Get(ctx, older.ID)
			require.NoError(t, err)
			assert.Equal(t, older, got)

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, newer.ID, list[0].ID)
			assert.Equal(t, older.ID, list[1].ID)

			require.NoError(t, store.Delete(ctx, older.ID))
			_, err = store.Get(ctx, older.ID)
			assert.ErrorIs(t, err, ErrPlanNotFound)

			list, err = store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestPlanStore_ListNewestFirstWithinSecond(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	offsets := map[string]time.Duration{
		"whole":  0,
		"tenth":  100 * time.Millisecond,
		"twelve": 120 * time.Millisecond,
		"half":   500 * time.Millisecond,
	}

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for title, d := range offsets {
				plan := NewFloorPlan(title)
				plan.CreatedAt = base.Add(d)
				require.NoError(t, store.Save(ctx, plan))
			}

			list, err := store.List(ctx)
			require.NoError(t, err)
			var titles []string
			for _, p := range list {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, []string{"half", "twelve", "tenth", "whole"}, titles)
		})
	}
}

func TestPlanStore_SaveReplaces(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			plan := twoRoomPlan()
			require.NoError(t, store.Save(ctx, plan))

			edited := plan.AddRoom("Porch")
			require.NoError(t, store.Save(ctx, edited))

			got, err := store.Get(ctx, plan.ID)
			require.NoError(t, err)
			assert.Len(t, got.Rooms, 3)

			list, err := store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestPlanStore_Missing(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "nope")
			assert.ErrorIs(t, err, ErrPlanNotFound)
			assert.ErrorIs(t, store.Delete(ctx, "nope"), ErrPlanNotFound)
			assert.ErrorIs(t, store.Save(ctx, nil), ErrMissingInput)

			list, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestFilePlanStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plans.json")
	ctx := context.Background()

	require.NoError(t, NewFilePlanStore(path).Save(ctx, twoRoomPlan()))
	assert.FileExists(t, path)

	reopened := NewFilePlanStore(path)
	got, err := reopened.Get(ctx, twoRoomPlan().ID)
	require.NoError(t, err)
	assert.Equal(t, "Ground Floor", got.Title)
}

func TestFilePlanStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := NewFilePlanStore(path).List(context.Background())
	assert.Error(t, err)
}

func TestOpenPlanStore_UnknownDriver(t *testing.T) {
	_, err := OpenPlanStore(StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}
