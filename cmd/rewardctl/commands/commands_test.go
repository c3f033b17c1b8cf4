package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/pkg/db"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root, st := newRoot()
	defer st.close()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRewardctl(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "coins.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ES_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 6 products, 2 campaigns")

	gdb, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.User{Username: "heidi", PasswordHash: "x", Role: models.RoleUser}).Error)
	require.NoError(t, db.Close(gdb))

	out, err = run(t, "grant-coins", "heidi", "75")
	require.NoError(t, err)
	assert.Contains(t, out, "heidi balance: 75")

	_, err = run(t, "grant-coins", "heidi", "-100")
	assert.ErrorIs(t, err, repo.ErrInsufficientCoins)

	out, err = run(t, "grant-coins", "--reason", "chargeback", "heidi", "-25")
	require.NoError(t, err)
	assert.Contains(t, out, "heidi balance: 50")

	_, err = run(t, "grant-coins", "nobody", "5")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "grant-coins", "heidi", "lots")
	assert.Error(t, err)

	_, err = run(t, "make-admin", "heidi")
	require.NoError(t, err)

	_, err = run(t, "reindex")
	assert.ErrorContains(t, err, "not configured")

	gdb, err = db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	u, err := repo.New(gdb).GetUserByUsername(context.Background(), "heidi")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	var debit models.CoinTransaction
	require.NoError(t, gdb.Where("user_id = ? AND amount = ?", u.ID, -25).First(&debit).Error)
	assert.Equal(t, "chargeback", debit.Description)
}
