package domain

// FinalPrice applies a percentage discount to a price in cents. Out of range
// inputs are clamped so the result is never negative and never above price.
func FinalPrice(priceCents int64, discountPercent int) int64 {
	if priceCents <= 0 {
		return 0
	}
	switch {
	case discountPercent < 0:
		discountPercent = 0
	case discountPercent > 100:
		discountPercent = 100
	}
	return priceCents * int64(100-discountPercent) / 100
}

// CoinsToCents converts coins to their cash value.
func CoinsToCents(coins, coinValueCents int64) int64 {
	if coins <= 0 || coinValueCents <= 0 {
		return 0
	}
	return coins * coinValueCents
}

// MaxCoinsFor is the smallest coin amount that covers amountCents entirely.
func MaxCoinsFor(amountCents, coinValueCents int64) int64 {
	if amountCents <= 0 || coinValueCents <= 0 {
		return 0
	}
	return (amountCents + coinValueCents - 1) / coinValueCents
}

// OrderTotals splits a subtotal into coin-covered and cash parts. ok is false
// when the coins would be worth more than the subtotal.
func OrderTotals(subtotalCents, coinsUsed, coinValueCents int64) (coinDiscount, total int64, ok bool) {
	coinDiscount = CoinsToCents(coinsUsed, coinValueCents)
	if coinDiscount > subtotalCents {
		return 0, 0, false
	}
	return coinDiscount, subtotalCents - coinDiscount, true
}
