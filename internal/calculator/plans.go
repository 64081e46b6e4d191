package calculator

import (
	"fmt"

	"github.com/Dan9191/rental-yield/internal/models"
)

// DefaultPlans returns the standard A/B/C pricing plans
func DefaultPlans() []models.PlanSettings {
	return []models.PlanSettings{
		{Code: "A", Name: "Market", RentFactor: 1.00, VacancyMonths: 1.0},
		{Code: "B", Name: "Quick lease", RentFactor: 0.95, VacancyMonths: 0.5},
		{Code: "C", Name: "Premium", RentFactor: 1.08, VacancyMonths: 2.0},
	}
}

// ValidatePlans checks that plan settings are usable
func ValidatePlans(plans []models.PlanSettings) error {
	if len(plans) == 0 {
		return fmt.Errorf("at least one plan is required")
	}
	seen := make(map[string]bool, len(plans))
	for _, p := range plans {
		if p.Code == "" {
			return fmt.Errorf("plan code is required")
		}
		if seen[p.Code] {
			return fmt.Errorf("duplicate plan code %q", p.Code)
		}
		seen[p.Code] = true
		if p.RentFactor <= 0 {
			return fmt.Errorf("plan %s: rent factor must be positive", p.Code)
		}
		if p.VacancyMonths < 0 || p.VacancyMonths >= 12 {
			return fmt.Errorf("plan %s: vacancy months must be between 0 and 12", p.Code)
		}
	}
	return nil
}

// ComparePlans projects every plan over the derived metrics and picks the
// one with the highest net annual income
func ComparePlans(m models.DerivedMetrics, plans []models.PlanSettings) models.RentalCalculations {
	calc := models.RentalCalculations{
		CapRate:          m.CapRate,
		GrossYield:       m.AnnualGrossYield,
		MonthlyNetIncome: m.MonthlyNetIncome,
		AnnualNetIncome:  m.AnnualNetIncome,
		Plans:            make([]models.PlanComparison, 0, len(plans)),
	}

	var best float64
	for i, p := range plans {
		rent := m.BaseRent * p.RentFactor
		effective := rent * (12 - p.VacancyMonths)
		net := effective - m.AnnualExpenses

		var rentUF float64
		if m.UFValue > 0 {
			rentUF = rent / m.UFValue
		}

		calc.Plans = append(calc.Plans, models.PlanComparison{
			Plan:                  p.Code,
			Name:                  p.Name,
			MonthlyRent:           rent,
			MonthlyRentUF:         rentUF,
			VacancyMonths:         p.VacancyMonths,
			EffectiveAnnualIncome: effective,
			NetAnnualIncome:       net,
			GrossYield:            percentOf(effective, m.PropertyValue),
			CapRate:               percentOf(net, m.PropertyValue),
		})

		if i == 0 || net > best {
			best = net
			calc.RecommendedPlan = p.Code
		}
	}
	return calc
}

// MarketRent estimates the rent of a property of areaM2 from the average
// rent per square metre of its comparables
func MarketRent(comparables []models.ComparableProperty, areaM2 float64) float64 {
	if areaM2 <= 0 {
		return 0
	}
	var sum float64
	var n int
	for _, c := range comparables {
		if c.AreaM2 <= 0 || c.MonthlyRent <= 0 {
			continue
		}
		sum += c.MonthlyRent / c.AreaM2
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * areaM2
}

// Calculator computes metrics and plan comparisons with a fixed plan set
type Calculator struct {
	plans []models.PlanSettings
}

// NewCalculator creates a calculator using plans, or the defaults when plans is empty
func NewCalculator(plans []models.PlanSettings) *Calculator {
	if len(plans) == 0 {
		plans = DefaultPlans()
	}
	return &Calculator{plans: plans}
}

// Evaluate runs the yield calculation and plan comparison for values
func (c *Calculator) Evaluate(values models.FormValues) (models.DerivedMetrics, models.RentalCalculations) {
	m := Calculate(values)
	return m, ComparePlans(m, c.plans)
}

// GetPlans returns the plan settings in use
func (c *Calculator) GetPlans() []models.PlanSettings {
	return append([]models.PlanSettings(nil), c.plans...)
}
