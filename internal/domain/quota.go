// Package domain contains core business types and interfaces.
//
// This file defines the plan tiers and the free-tier generation quota.
package domain

const (
	TierFree = "Free"
	TierPro  = "Pro"
)

// DefaultFreeDailyLimit is the number of emails a free profile may generate per calendar day.
const DefaultFreeDailyLimit = 3

// QuotaUsage represents today's generation usage for a profile.
type QuotaUsage struct {
	Used        int  `json:"used"`
	Limit       int  `json:"limit"`
	Remaining   int  `json:"remaining"`
	IsUnlimited bool `json:"unlimited"`
}

// UsageFor reports usage for a profile against limit.
func UsageFor(p *Profile, limit int) QuotaUsage {
	if p.IsPro {
		return QuotaUsage{Used: p.DailyGenerationsCount, IsUnlimited: true, Remaining: -1}
	}
	return QuotaUsage{
		Used:      p.DailyGenerationsCount,
		Limit:     limit,
		Remaining: p.RemainingGenerations(limit),
	}
}
