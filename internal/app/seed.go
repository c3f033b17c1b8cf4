package app

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
)

var demoProducts = []transport.CreateProductRequest{
	{Name: "Wireless Earbuds", Description: "Bluetooth earbuds with charging case", Category: "electronics", Tags: []string{"audio", "bluetooth"}, PriceCents: 4999, DiscountPercent: 10, Stock: 40},
	{Name: "Phone Stand", Description: "Adjustable aluminium desk stand", Category: "electronics", Tags: []string{"desk"}, PriceCents: 1599, Stock: 120},
	{Name: "Coffee Mug", Description: "Ceramic mug, 350 ml", Category: "home", Tags: []string{"kitchen"}, PriceCents: 899, Stock: 200},
	{Name: "Hoodie", Description: "Cotton hoodie with front pocket", Category: "apparel", Tags: []string{"clothing", "winter"}, PriceCents: 3499, DiscountPercent: 20, Stock: 60},
	{Name: "Water Bottle", Description: "Insulated steel bottle, 750 ml", Category: "sports", Tags: []string{"outdoor"}, PriceCents: 1999, Stock: 80},
	{Name: "Gift Card 10", Description: "Store gift card worth 10.00", Category: "gift cards", PriceCents: 1000, Stock: 500},
}

var demoCampaigns = []transport.CampaignRequest{
	{Name: "Summer Drinks", Advertiser: "Fizz Co", Description: "30 second spot", MediaURL: "https://cdn.example.com/ads/fizz.mp4", TargetURL: "https://fizz.example.com", RewardCoins: 10, BudgetCoins: 50000},
	{Name: "Running Shoes", Advertiser: "Stride", Description: "15 second spot", MediaURL: "https://cdn.example.com/ads/stride.mp4", TargetURL: "https://stride.example.com", RewardCoins: 5},
}

type SeedResult struct {
	Products  int
	Campaigns int
}

// Seed fills an empty catalog with demo products and active campaigns.
// Tables that already hold rows are left alone.
func (a *App) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult

	total, _, err := a.Repo.GetProducts(ctx, repo.ProductFilter{}, 0, 1)
	if err != nil {
		return res, err
	}
	if total == 0 {
		for _, p := range demoProducts {
			if _, err := a.Catalog.CreateProduct(ctx, p); err != nil {
				return res, fmt.Errorf("seed product %q: %w", p.Name, err)
			}
			res.Products++
		}
	}

	total, _, err = a.Repo.ListCampaigns(ctx, "", 0, 1)
	if err != nil {
		return res, err
	}
	if total == 0 {
		for _, c := range demoCampaigns {
			camp, err := a.Campaigns.Create(ctx, c)
			if err != nil {
				return res, fmt.Errorf("seed campaign %q: %w", c.Name, err)
			}
			if _, err := a.Campaigns.SetStatus(ctx, camp.ID, models.CampaignActive); err != nil {
				return res, fmt.Errorf("activate campaign %q: %w", c.Name, err)
			}
			res.Campaigns++
		}
	}
	return res, nil
}
