// Package alert holds the decision logic for price-drop notifications.
package alert

import (
	"github.com/colelamarris56-code/price-monitor/internal/models"
)

type Decision struct {
	Fire   bool
	Reason string
}

// Evaluate decides whether a freshly recorded observation warrants an alert.
// The rules are ordered and deliberately asymmetric: the first reading at or
// under target alerts immediately, while later readings must also be a
// strict drop from the previous price. A price sitting flat under target
// therefore alerts once, not on every cycle.
func Evaluate(product models.Product, prev *models.PriceObservation, obs models.PriceObservation) Decision {
	if obs.Price == nil {
		return Decision{Reason: "price unknown"}
	}

	price := *obs.Price

	if price > product.TargetPrice {
		return Decision{Reason: "price above target"}
	}

	if prev == nil || prev.Price == nil {
		return Decision{Fire: true, Reason: "first reading at or under target"}
	}

	if price < *prev.Price {
		return Decision{Fire: true, Reason: "price dropped under target"}
	}

	return Decision{Reason: "no drop since previous reading"}
}
