package alert

import (
	"testing"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/models"
)

func obs(price float64) models.PriceObservation {
	return models.PriceObservation{
		Price:        &price,
		Availability: models.InStock,
		ObservedAt:   time.Now().UTC(),
	}
}

func obsPtr(price float64) *models.PriceObservation {
	o := obs(price)
	return &o
}

func TestEvaluate(t *testing.T) {
	product := models.Product{
		ID:          "p1",
		Title:       "Widget",
		TargetPrice: 100,
	}

	tests := []struct {
		name     string
		prev     *models.PriceObservation
		new      models.PriceObservation
		wantFire bool
	}{
		{name: "first reading below target alerts", prev: nil, new: obs(90), wantFire: true},
		{name: "first reading at target alerts", prev: nil, new: obs(100), wantFire: true},
		{name: "first reading above target does not alert", prev: nil, new: obs(110), wantFire: false},
		{name: "unchanged price below target does not re-alert", prev: obsPtr(90), new: obs(90), wantFire: false},
		{name: "drop under target alerts", prev: obsPtr(95), new: obs(85), wantFire: true},
		{name: "rise while still under target does not alert", prev: obsPtr(85), new: obs(90), wantFire: false},
		{name: "drop that stays above target does not alert", prev: obsPtr(150), new: obs(120), wantFire: false},
		{name: "unknown price never alerts", prev: obsPtr(95), new: models.PriceObservation{Availability: models.Unknown}, wantFire: false},
		{name: "unknown price without history never alerts", prev: nil, new: models.PriceObservation{Availability: models.Unknown}, wantFire: false},
		{name: "null-priced previous is treated as no history", prev: &models.PriceObservation{Availability: models.Unknown}, new: obs(90), wantFire: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(product, tt.prev, tt.new)
			if decision.Fire != tt.wantFire {
				t.Errorf("Fire = %v, want %v (reason: %s)", decision.Fire, tt.wantFire, decision.Reason)
			}
			if decision.Reason == "" {
				t.Error("decision carries no reason")
			}
		})
	}
}
