package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/pkg/db"
)

func TestMigrate_CreatesEveryTable(t *testing.T) {
	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, Migrate(gdb))
	// Running twice is a no-op.
	require.NoError(t, Migrate(gdb))

	for _, m := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(m), "%T", m)
	}
	assert.True(t, gdb.Migrator().HasColumn(&models.Product{}, "tags"))

	p := &models.Product{Name: "Mug", Tags: models.Tags{"kitchen", "gift"}, PriceCents: 800, Stock: 1, Active: true}
	require.NoError(t, gdb.Create(p).Error)

	var got models.Product
	require.NoError(t, gdb.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, models.Tags{"kitchen", "gift"}, got.Tags)
}
