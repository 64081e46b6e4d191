package service

import (
	"time"

	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
)

// ExampleAnalyses returns the two illustrative records an empty store starts
// with. Timestamps are relative to start.
func ExampleAnalyses(start time.Time, calc *calculator.Calculator) []models.SavedAnalysis {
	providencia := models.SavedAnalysis{
		ID:    "example-providencia",
		Title: "Departamento 2D1B Providencia",
		Property: models.Property{
			Address:      "Av. Providencia 1234, depto 805",
			Commune:      "Providencia",
			PropertyType: "apartment",
			AreaM2:       55,
			Bedrooms:     2,
			Bathrooms:    1,
			ParkingSpots: 1,
			ValueUF:      4200,
		},
		Analysis: models.Analysis{
			Currency:      models.CurrencyCLP,
			SuggestedRent: 650000,
			UFValue:       calculator.DefaultUFValue,
			Expenses: models.Expenses{
				Maintenance: 1200000,
				PropertyTax: 480000,
				Insurance:   180000,
			},
			Comparables: []models.ComparableProperty{
				{Address: "Av. Providencia 1400", MonthlyRent: 620000, AreaM2: 52, Bedrooms: 2},
				{Address: "Los Leones 350", MonthlyRent: 690000, AreaM2: 58, Bedrooms: 2},
			},
		},
		Metadata: models.Metadata{
			CreatedAt: start.Add(-72 * time.Hour),
			UpdatedAt: start.Add(-48 * time.Hour),
			Status:    models.StatusReview,
			Tags:      []string{"providencia", "apartment"},
		},
	}

	nunoa := models.SavedAnalysis{
		ID:    "example-nunoa",
		Title: "Casa 3D2B Ñuñoa",
		Property: models.Property{
			Address:      "Pasaje Los Aromos 56",
			Commune:      "Ñuñoa",
			PropertyType: "house",
			AreaM2:       110,
			Bedrooms:     3,
			Bathrooms:    2,
			ParkingSpots: 2,
			ValueCLP:     280000000,
		},
		Analysis: models.Analysis{
			Currency:      models.CurrencyUF,
			SuggestedRent: 28,
			UFValue:       calculator.DefaultUFValue,
			Expenses: models.Expenses{
				Maintenance: 600000,
				PropertyTax: 1100000,
				Insurance:   320000,
			},
			Comparables: []models.ComparableProperty{
				{Address: "Pasaje Los Aromos 80", MonthlyRent: 1000000, AreaM2: 105, Bedrooms: 3},
			},
		},
		Metadata: models.Metadata{
			CreatedAt: start.Add(-24 * time.Hour),
			UpdatedAt: start.Add(-2 * time.Hour),
			Status:    models.StatusDraft,
			Tags:      []string{"nunoa", "house"},
		},
	}

	out := []models.SavedAnalysis{providencia, nunoa}
	for i := range out {
		_, out[i].Calculations = calc.Evaluate(calculator.FormFromAnalysis(out[i].Property, out[i].Analysis))
	}
	return out
}
