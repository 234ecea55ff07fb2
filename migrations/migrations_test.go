package migrations_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental/migrations"
	"rental/test/infra"
)

func TestAll_SortedAndEmbedded(t *testing.T) {
	all, err := migrations.All()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	assert.Equal(t, "001_houses", all[0].Version)
	assert.Contains(t, all[0].SQL, "CREATE TABLE IF NOT EXISTS houses")
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
	for _, m := range all {
		assert.False(t, strings.HasSuffix(m.Version, ".sql"), m.Version)
	}
}

func TestApply_RecordsAndSkips(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h, err := infra.NewHarness(ctx, "rental_migrations_test")
	if errors.Is(err, infra.ErrNoDatabase) {
		t.Skipf("no database: %v", err)
	}
	require.NoError(t, err)
	defer h.Close(context.Background())

	// NewHarness already migrated, so a second run has nothing to do.
	applied, err := migrations.Apply(ctx, h.Pool())
	require.NoError(t, err)
	assert.Empty(t, applied)

	all, err := migrations.All()
	require.NoError(t, err)
	var recorded int
	require.NoError(t, h.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&recorded))
	assert.Equal(t, len(all), recorded)

	var exists bool
	require.NoError(t, h.Pool().QueryRow(ctx, `SELECT to_regclass('houses') IS NOT NULL`).Scan(&exists))
	assert.True(t, exists)
}
