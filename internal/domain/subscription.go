package domain

import "time"

// SubscriptionWindow is the synthesized length of a Pro subscription.
// No billing period is tracked; the window is computed from the last profile update.
const SubscriptionWindow = 30 * 24 * time.Hour

// SubscriptionStatus is the response body of the subscription-status endpoint.
type SubscriptionStatus struct {
	Subscribed        bool       `json:"subscribed"`
	SubscriptionTier  string     `json:"subscription_tier,omitempty"`
	SubscriptionStart *time.Time `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `json:"subscription_end,omitempty"`
}

// SubscriptionFor derives the subscription status from a profile.
func SubscriptionFor(p *Profile) SubscriptionStatus {
	if p == nil || !p.IsPro {
		return SubscriptionStatus{Subscribed: false}
	}
	start := p.UpdatedAt
	end := start.Add(SubscriptionWindow)
	return SubscriptionStatus{
		Subscribed:        true,
		SubscriptionTier:  TierPro,
		SubscriptionStart: &start,
		SubscriptionEnd:   &end,
	}
}
