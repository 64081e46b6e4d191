package calculator

import (
	"strconv"
	"strings"

	"github.com/Dan9191/rental-yield/internal/models"
)

// DefaultUFValue is used when the form carries no usable UF quotation
const DefaultUFValue = 37000.0

// Calculate derives rent, expense and yield metrics from raw form values.
// It never fails: malformed numbers count as zero.
func Calculate(values models.FormValues) models.DerivedMetrics {
	ufValue := ParseAmount(values[models.FieldUFValueCLP])
	if ufValue <= 0 {
		ufValue = DefaultUFValue
	}

	isUFRent := models.Currency(values[models.FieldRentCurrency]) == models.CurrencyUF
	var baseRent float64
	if isUFRent {
		baseRent = ParseAmount(values[models.FieldSuggestedRentUF]) * ufValue
	} else {
		baseRent = ParseAmount(values[models.FieldSuggestedRentCLP])
	}

	// A non-empty CLP value is authoritative even when it parses to zero
	var propertyValue float64
	if raw := values[models.FieldPropertyValueCLP]; strings.TrimSpace(raw) != "" {
		propertyValue = ParseAmount(raw)
	} else {
		propertyValue = ParseAmount(values[models.FieldPropertyValueUF]) * ufValue
	}

	monthlyExpenses := ParseAmount(values[models.FieldAnnualMaintenanceCLP])/12 +
		ParseAmount(values[models.FieldAnnualPropertyTaxCLP])/12 +
		ParseAmount(values[models.FieldAnnualInsuranceCLP])/12
	annualExpenses := monthlyExpenses * 12

	monthlyNetIncome := baseRent - monthlyExpenses
	annualNetIncome := monthlyNetIncome * 12

	return models.DerivedMetrics{
		BaseRent:         baseRent,
		PropertyValue:    propertyValue,
		AnnualGrossYield: percentOf(baseRent*12, propertyValue),
		MonthlyNetIncome: monthlyNetIncome,
		AnnualNetIncome:  annualNetIncome,
		CapRate:          percentOf(annualNetIncome, propertyValue),
		IsUFRent:         isUFRent,
		UFValue:          ufValue,
		MonthlyExpenses:  monthlyExpenses,
		AnnualExpenses:   annualExpenses,
	}
}

// FormFromAnalysis rebuilds the form values a saved analysis was computed from
func FormFromAnalysis(p models.Property, a models.Analysis) models.FormValues {
	values := models.FormValues{
		models.FieldPropertyValueCLP:     formatAmount(p.ValueCLP),
		models.FieldPropertyValueUF:      formatAmount(p.ValueUF),
		models.FieldRentCurrency:         string(a.Currency),
		models.FieldUFValueCLP:           formatAmount(a.UFValue),
		models.FieldAnnualMaintenanceCLP: formatAmount(a.Expenses.Maintenance),
		models.FieldAnnualPropertyTaxCLP: formatAmount(a.Expenses.PropertyTax),
		models.FieldAnnualInsuranceCLP:   formatAmount(a.Expenses.Insurance),
	}
	if a.Currency == models.CurrencyUF {
		values[models.FieldSuggestedRentUF] = formatAmount(a.SuggestedRent)
	} else {
		values[models.FieldSuggestedRentCLP] = formatAmount(a.SuggestedRent)
	}
	return values
}

func formatAmount(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
