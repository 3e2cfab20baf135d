package services

import "fmt"

// CODConfig is the cash-on-delivery policy. Loaded once and treated as
// immutable; tests pass their own copy.
type CODConfig struct {
	FreeShippingThreshold float64
	BaseFee               float64
	MaxOrderValue         float64
	DefaultRegion         string
	RegionFees            map[string]float64
	DeliveryDays          map[string][2]int
}

// DefaultCODConfig returns the production policy: Sri Lankan provinces,
// amounts in LKR.
func DefaultCODConfig() CODConfig {
	return CODConfig{
		FreeShippingThreshold: 5000,
		BaseFee:               150,
		MaxOrderValue:         50000,
		DefaultRegion:         "Western",
		RegionFees: map[string]float64{
			"Western":       100,
			"Central":       150,
			"Southern":      150,
			"Northern":      200,
			"Eastern":       200,
			"North Western": 150,
			"North Central": 200,
			"Uva":           200,
			"Sabaragamuwa":  150,
		},
		DeliveryDays: map[string][2]int{
			"Western":       {2, 3},
			"Central":       {3, 5},
			"Southern":      {3, 5},
			"Northern":      {5, 7},
			"Eastern":       {5, 7},
			"North Western": {3, 5},
			"North Central": {4, 6},
			"Uva":           {4, 6},
			"Sabaragamuwa":  {3, 5},
		},
	}
}

// CODQuote is the result of a cash-on-delivery eligibility check.
type CODQuote struct {
	Eligible         bool    `json:"eligible"`
	Fee              float64 `json:"fee"`
	IsFreeShipping   bool    `json:"is_free_shipping"`
	DeliveryEstimate string  `json:"delivery_estimate"`
	Reason           string  `json:"reason,omitempty"`
}

// QuoteCOD computes COD fee, eligibility and delivery estimate for an order
// value in the given region. Pure and deterministic, so callers may invoke it
// on every request without caching.
func QuoteCOD(orderValue float64, region string, cfg CODConfig) CODQuote {
	if orderValue > cfg.MaxOrderValue {
		return CODQuote{
			Eligible:         false,
			Fee:              0,
			DeliveryEstimate: "N/A",
			Reason:           fmt.Sprintf("order value exceeds COD limit of %.0f", cfg.MaxOrderValue),
		}
	}

	quote := CODQuote{
		Eligible:         true,
		DeliveryEstimate: deliveryEstimate(region, cfg),
	}

	if orderValue >= cfg.FreeShippingThreshold {
		quote.IsFreeShipping = true
		return quote
	}

	quote.Fee = cfg.BaseFee + regionFee(region, cfg)
	return quote
}

func regionFee(region string, cfg CODConfig) float64 {
	if fee, ok := cfg.RegionFees[region]; ok {
		return fee
	}
	return cfg.RegionFees[cfg.DefaultRegion]
}

func deliveryEstimate(region string, cfg CODConfig) string {
	days, ok := cfg.DeliveryDays[region]
	if !ok {
		days = cfg.DeliveryDays[cfg.DefaultRegion]
	}
	if days[0] == days[1] {
		return fmt.Sprintf("%d days", days[0])
	}
	return fmt.Sprintf("%d-%d days", days[0], days[1])
}
