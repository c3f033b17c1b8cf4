// Package testutil opens throwaway databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/pkg/db"
)

// NewDB returns a migrated in-memory SQLite database closed with the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return gdb
}

func NewUser(t testing.TB, gdb *gorm.DB, username, role string) *models.User {
	t.Helper()

	u := &models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func NewProduct(t testing.TB, gdb *gorm.DB, name string, priceCents int64, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:        name,
		Description: name + " description",
		Category:    "general",
		PriceCents:  priceCents,
		Stock:       stock,
		Active:      true,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}
