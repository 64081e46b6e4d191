package models

// FormValues holds raw, not yet validated form input keyed by field name
type FormValues map[string]string

// Form field names
const (
	FieldPropertyValueCLP     = "property_value_clp"
	FieldPropertyValueUF      = "property_value_uf"
	FieldRentCurrency         = "rent_currency"
	FieldSuggestedRentCLP     = "suggested_rent_clp"
	FieldSuggestedRentUF      = "suggested_rent_uf"
	FieldUFValueCLP           = "uf_value_clp"
	FieldAnnualMaintenanceCLP = "annual_maintenance_clp"
	FieldAnnualPropertyTaxCLP = "annual_property_tax_clp"
	FieldAnnualInsuranceCLP   = "annual_insurance_clp"
)

// Currency identifies the unit a rent or value was entered in
type Currency string

const (
	CurrencyCLP Currency = "CLP"
	CurrencyUF  Currency = "UF"
)

// DerivedMetrics is the result of a yield calculation
type DerivedMetrics struct {
	BaseRent         float64 `json:"base_rent"`
	PropertyValue    float64 `json:"property_value"`
	AnnualGrossYield float64 `json:"annual_gross_yield"`
	MonthlyNetIncome float64 `json:"monthly_net_income"`
	AnnualNetIncome  float64 `json:"annual_net_income"`
	CapRate          float64 `json:"cap_rate"`
	IsUFRent         bool    `json:"is_uf_rent"`
	UFValue          float64 `json:"uf_value"`
	MonthlyExpenses  float64 `json:"monthly_expenses"`
	AnnualExpenses   float64 `json:"annual_expenses"`
}
