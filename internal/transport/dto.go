package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coin_shop/internal/wheel"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateProductRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	ImageURL        string   `json:"image_url"`
	Tags            []string `json:"tags"`
	PriceCents      int64    `json:"price_cents"`
	DiscountPercent int      `json:"discount_percent"`
	Stock           int      `json:"stock"`
	Active          *bool    `json:"active"`
}

type PatchProductRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	Category        *string   `json:"category"`
	ImageURL        *string   `json:"image_url"`
	Tags            *[]string `json:"tags"`
	PriceCents      *int64    `json:"price_cents"`
	DiscountPercent *int      `json:"discount_percent"`
	Stock           *int      `json:"stock"`
	Active          *bool     `json:"active"`
}

type ProductView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	ImageURL        string    `json:"image_url"`
	Tags            []string  `json:"tags"`
	PriceCents      int64     `json:"price_cents"`
	DiscountPercent int       `json:"discount_percent"`
	FinalPriceCents int64     `json:"final_price_cents"`
	MaxCoins        int64     `json:"max_coins"`
	Stock           int       `json:"stock"`
	Active          bool      `json:"active"`
}

type CartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	CoinsToUse      int64             `json:"coins_to_use"`
	ShippingAddress string            `json:"shipping_address"`
}

type CheckoutRequest struct {
	CoinsToUse      int64  `json:"coins_to_use"`
	ShippingAddress string `json:"shipping_address"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AdjustCoinsRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Delta  int64     `json:"delta"`
	Reason string    `json:"reason"`
}

type CoinSummary struct {
	Balance     int64            `json:"balance"`
	TotalEarned int64            `json:"total_earned"`
	TotalSpent  int64            `json:"total_spent"`
	ByType      map[string]int64 `json:"by_type"`
	Count       int64            `json:"transactions"`
}

type CampaignRequest struct {
	Name        string     `json:"name"`
	Advertiser  string     `json:"advertiser"`
	Description string     `json:"description"`
	MediaURL    string     `json:"media_url"`
	TargetURL   string     `json:"target_url"`
	RewardCoins int64      `json:"reward_coins"`
	BudgetCoins int64      `json:"budget_coins"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

type CampaignPatchRequest struct {
	Name        *string    `json:"name"`
	Advertiser  *string    `json:"advertiser"`
	Description *string    `json:"description"`
	MediaURL    *string    `json:"media_url"`
	TargetURL   *string    `json:"target_url"`
	RewardCoins *int64     `json:"reward_coins"`
	BudgetCoins *int64     `json:"budget_coins"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

type CampaignStats struct {
	CampaignID     uuid.UUID  `json:"campaign_id"`
	Views          int64      `json:"views"`
	Clicks         int64      `json:"clicks"`
	Conversions    int64      `json:"conversions"`
	CTR            float64    `json:"ctr"`
	ConversionRate float64    `json:"conversion_rate"`
	CoinsAwarded   int64      `json:"coins_awarded"`
	Days           []DayStats `json:"days"`
}

type DayStats struct {
	Day         string `json:"day"`
	Views       int64  `json:"views"`
	Clicks      int64  `json:"clicks"`
	Conversions int64  `json:"conversions"`
}

type ViewResult struct {
	CampaignID    uuid.UUID `json:"campaign_id"`
	CoinsEarned   int64     `json:"coins_earned"`
	Balance       int64     `json:"balance"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

type SpinResult struct {
	Angle      float64   `json:"angle"`
	Segment    int       `json:"segment"`
	Label      string    `json:"label"`
	Coins      int64     `json:"coins"`
	Balance    int64     `json:"balance"`
	NextSpinAt time.Time `json:"next_spin_at"`
}

type CartLine struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
	Available      bool      `json:"available"`
}

type CartView struct {
	Items         []CartLine `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	MaxCoins      int64      `json:"max_coins"`
}

type WheelView struct {
	Segments       []wheel.Segment `json:"segments"`
	SegmentDegrees float64         `json:"segment_degrees"`
	CanSpin        bool            `json:"can_spin"`
	NextSpinAt     *time.Time      `json:"next_spin_at,omitempty"`
}
