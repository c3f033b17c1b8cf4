package domain

import "github.com/Skotchmaster/coin_shop/internal/models"

var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

var campaignTransitions = map[string][]string{
	models.CampaignDraft:  {models.CampaignActive, models.CampaignEnded},
	models.CampaignActive: {models.CampaignPaused, models.CampaignEnded},
	models.CampaignPaused: {models.CampaignActive, models.CampaignEnded},
}

func allowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanTransitionOrder(from, to string) bool {
	return allowed(orderTransitions, from, to)
}

func CanTransitionCampaign(from, to string) bool {
	return allowed(campaignTransitions, from, to)
}

func ValidOrderStatus(s string) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return true
	}
	return false
}

func ValidCampaignStatus(s string) bool {
	switch s {
	case models.CampaignDraft, models.CampaignActive, models.CampaignPaused, models.CampaignEnded:
		return true
	}
	return false
}

// Cancellable reports whether an owner may still cancel an order.
func Cancellable(status string) bool {
	return CanTransitionOrder(status, models.OrderStatusCancelled)
}
