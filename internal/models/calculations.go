package models

// PlanSettings describes how a pricing plan adjusts the suggested rent
type PlanSettings struct {
	Code          string  `json:"code" yaml:"code"`
	Name          string  `json:"name" yaml:"name"`
	RentFactor    float64 `json:"rent_factor" yaml:"rent_factor"`
	VacancyMonths float64 `json:"vacancy_months" yaml:"vacancy_months"`
}

// PlanComparison holds the projected figures of a single pricing plan
type PlanComparison struct {
	Plan                  string  `json:"plan"`
	Name                  string  `json:"name"`
	MonthlyRent           float64 `json:"monthly_rent"`
	MonthlyRentUF         float64 `json:"monthly_rent_uf"`
	VacancyMonths         float64 `json:"vacancy_months"`
	EffectiveAnnualIncome float64 `json:"effective_annual_income"`
	NetAnnualIncome       float64 `json:"net_annual_income"`
	GrossYield            float64 `json:"gross_yield"`
	CapRate               float64 `json:"cap_rate"`
}

// RentalCalculations is the calculation snapshot stored with an analysis
type RentalCalculations struct {
	CapRate          float64          `json:"cap_rate"`
	GrossYield       float64          `json:"gross_yield"`
	MonthlyNetIncome float64          `json:"monthly_net_income"`
	AnnualNetIncome  float64          `json:"annual_net_income"`
	Plans            []PlanComparison `json:"plans"`
	RecommendedPlan  string           `json:"recommended_plan"`
}
