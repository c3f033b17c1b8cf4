package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/testutil"
)

func TestCreateUser_SignupBonus(t *testing.T) {
	ctx := context.Background()
	r := New(testutil.NewDB(t))

	u := &models.User{Username: "alice", PasswordHash: "hash"}
	tx, err := r.CreateUser(ctx, u, 100)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, models.TxBonus, tx.Type)
	assert.Equal(t, int64(100), tx.BalanceAfter)

	reward, err := r.GetReward(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), reward.Balance)
	assert.Equal(t, int64(100), reward.TotalEarned)

	_, err = r.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "hash"}, 100)
	assert.ErrorIs(t, err, ErrUserAlreadyExist)
}

func TestLedger_EarnSpend(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)
	u := testutil.NewUser(t, gdb, "bob", models.RoleUser)

	reward, err := r.GetReward(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, reward.Balance)

	earned, err := r.Earn(ctx, u.ID, models.SourceAdView, 30, "c1", "watched")
	require.NoError(t, err)
	assert.Equal(t, int64(30), earned.Amount)
	assert.Equal(t, int64(30), earned.BalanceAfter)

	spent, err := r.Spend(ctx, u.ID, models.SourceOrder, 20, "o1", "order")
	require.NoError(t, err)
	assert.Equal(t, int64(-20), spent.Amount)
	assert.Equal(t, int64(10), spent.BalanceAfter)

	_, err = r.Spend(ctx, u.ID, models.SourceOrder, 11, "o2", "order")
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	reward, err = r.GetReward(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), reward.Balance)
	assert.Equal(t, int64(30), reward.TotalEarned)
	assert.Equal(t, int64(20), reward.TotalSpent)

	_, err = r.Adjust(ctx, u.ID, -11, "too much")
	assert.ErrorIs(t, err, ErrInsufficientCoins)
	adj, err := r.Adjust(ctx, u.ID, 5, "goodwill")
	require.NoError(t, err)
	assert.Equal(t, int64(15), adj.BalanceAfter)

	total, items, err := r.History(ctx, u.ID, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)

	total, items, err = r.History(ctx, u.ID, models.TxSpend, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "o1", items[0].Reference)

	sums, count, err := r.SumByType(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, int64(30), sums[models.TxEarn])
	assert.Equal(t, int64(-20), sums[models.TxSpend])
	assert.Equal(t, int64(5), sums[models.TxAdjust])
}

func TestLedger_ConcurrentSpendNeverNegative(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)
	u := testutil.NewUser(t, gdb, "carol", models.RoleUser)

	_, err := r.Earn(ctx, u.ID, models.SourceAdView, 50, "", "")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Spend(ctx, u.ID, models.SourceOrder, 10, "", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientCoins):
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, refused)

	reward, err := r.GetReward(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, reward.Balance)
}

func TestSpinTx_Cooldown(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)
	u := testutil.NewUser(t, gdb, "dave", models.RoleUser)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reward, tx, err := r.SpinTx(ctx, u.ID, now, 24*time.Hour, 25, "spin")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, int64(25), reward.Balance)
	require.NotNil(t, reward.LastSpinAt)

	_, _, err = r.SpinTx(ctx, u.ID, now.Add(time.Hour), 24*time.Hour, 25, "spin")
	assert.ErrorIs(t, err, ErrSpinCooldown)

	reward, tx, err = r.SpinTx(ctx, u.ID, now.Add(25*time.Hour), 24*time.Hour, 0, "spin")
	require.NoError(t, err)
	assert.Nil(t, tx)
	assert.Equal(t, int64(25), reward.Balance)
}
