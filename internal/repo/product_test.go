package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/testutil"
	"github.com/Skotchmaster/coin_shop/internal/transport"
)

func TestProducts_CRUD(t *testing.T) {
	ctx := context.Background()
	r := New(testutil.NewDB(t))

	p, err := r.CreateProduct(ctx, &models.Product{
		Name:        "Headphones",
		Description: "Wireless over-ear",
		Category:    "audio",
		Tags:        models.Tags{"wireless", "music"},
		PriceCents:  9900,
		Stock:       7,
		Active:      false,
	})
	require.NoError(t, err)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"wireless", "music"}, []string(got.Tags))
	assert.False(t, got.Active)

	price := int64(7900)
	active := true
	tags := []string{"sale"}
	patched, err := r.PatchProduct(ctx, transport.PatchProductRequest{PriceCents: &price, Active: &active, Tags: &tags}, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7900), patched.PriceCents)
	assert.True(t, patched.Active)
	assert.Equal(t, "Headphones", patched.Name)

	byID, err := r.GetProductsByIDs(ctx, []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byID, 1)

	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	err = r.DeleteProduct(ctx, p.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = r.PatchProduct(ctx, transport.PatchProductRequest{}, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPatchProduct_KeepsConcurrentStockChanges(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)
	p := testutil.NewProduct(t, gdb, "Lamp", 1500, 5)

	// A sale lands right before the patch hits the row.
	sold := false
	require.NoError(t, gdb.Callback().Update().Before("gorm:update").Register("test:sale", func(tx *gorm.DB) {
		if sold || tx.Statement.Table != "products" {
			return
		}
		sold = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE products SET stock = stock - 3 WHERE id = ?", p.ID).Error)
	}))

	name := "Desk lamp"
	patched, err := r.PatchProduct(ctx, transport.PatchProductRequest{Name: &name}, p.ID)
	require.NoError(t, err)
	assert.True(t, sold)
	assert.Equal(t, "Desk lamp", patched.Name)
	assert.Equal(t, 2, patched.Stock)
	assert.Equal(t, int64(1500), patched.PriceCents)
}

func TestGetProducts_Filter(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)

	testutil.NewProduct(t, gdb, "Kettle", 2500, 1)
	testutil.NewProduct(t, gdb, "Toaster", 3500, 1)
	hidden := testutil.NewProduct(t, gdb, "Blender", 4500, 1)
	require.NoError(t, gdb.Model(hidden).Update("active", false).Error)

	total, items, err := r.GetProducts(ctx, ProductFilter{ActiveOnly: true}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	total, items, err = r.GetProducts(ctx, ProductFilter{Category: "general"}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)

	total, items, err = r.GetProducts(ctx, ProductFilter{Category: "toys"}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestSearchProductsLike(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)

	testutil.NewProduct(t, gdb, "Red Kettle", 2500, 1)
	testutil.NewProduct(t, gdb, "Blue Kettle", 2500, 1)
	testutil.NewProduct(t, gdb, "Toaster", 3500, 1)

	total, items, err := r.SearchProductsLike(ctx, "kettle", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Blue Kettle", items[0].Name)

	total, _, err = r.SearchProductsLike(ctx, "RED kettle", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSearchProductsLike_WildcardsMatchLiterally(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)

	testutil.NewProduct(t, gdb, "100% Cotton Tee", 1900, 1)
	testutil.NewProduct(t, gdb, "snake_case Mug", 900, 1)
	testutil.NewProduct(t, gdb, "Kettle", 2500, 1)

	tests := []struct {
		q    string
		want []string
	}{
		{q: "%", want: []string{"100% Cotton Tee"}},
		{q: "_", want: []string{"snake_case Mug"}},
		{q: "e_c", want: []string{"snake_case Mug"}},
		{q: `\`, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			total, items, err := r.SearchProductsLike(ctx, tt.q, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			names := make([]string, 0, len(items))
			for _, p := range items {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestCart(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)
	u := testutil.NewUser(t, gdb, "kim", models.RoleUser)
	p := testutil.NewProduct(t, gdb, "Socks", 500, 10)

	item := &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}
	require.NoError(t, r.AddToCart(ctx, item))
	item = &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 2}
	require.NoError(t, r.AddToCart(ctx, item))
	assert.Equal(t, 3, item.Quantity)

	deleted, left, err := r.DeleteOneFromCart(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 2, left.Quantity)

	require.NoError(t, r.DeleteAllFromCart(ctx, u.ID))
	_, _, err = r.DeleteOneFromCart(ctx, p.ID, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}))
	deleted, _, err = r.DeleteOneFromCart(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
