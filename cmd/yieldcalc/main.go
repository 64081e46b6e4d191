// Command yieldcalc computes rental metrics and plan comparisons offline.
//
// Usage:
//
//	yieldcalc --property-value-uf 4200 --rent-clp 650000 --maintenance 1200000
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/config"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/spf13/cobra"
)

type output struct {
	Metrics      models.DerivedMetrics     `json:"metrics"`
	Calculations models.RentalCalculations `json:"calculations"`
}

func newRootCmd() *cobra.Command {
	var (
		plansFile string
		compact   bool
	)
	flags := []struct {
		name  string
		field string
		usage string
	}{
		{"property-value-clp", models.FieldPropertyValueCLP, "property value in CLP"},
		{"property-value-uf", models.FieldPropertyValueUF, "property value in UF, used when no CLP value is given"},
		{"currency", models.FieldRentCurrency, "rent currency (CLP or UF)"},
		{"rent-clp", models.FieldSuggestedRentCLP, "monthly rent in CLP"},
		{"rent-uf", models.FieldSuggestedRentUF, "monthly rent in UF"},
		{"uf", models.FieldUFValueCLP, "UF value in CLP (default 37000)"},
		{"maintenance", models.FieldAnnualMaintenanceCLP, "annual maintenance in CLP"},
		{"property-tax", models.FieldAnnualPropertyTaxCLP, "annual property tax in CLP"},
		{"insurance", models.FieldAnnualInsuranceCLP, "annual insurance in CLP"},
	}
	raw := make(map[string]*string, len(flags))

	cmd := &cobra.Command{
		Use:   "yieldcalc",
		Short: "Compute rental yield, cap rate and pricing plans",
		Long: `Computes gross yield, net income and cap rate from property and rent
figures, then compares the configured pricing plans. Output is JSON.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := config.LoadPlans(plansFile)
			if err != nil {
				return err
			}

			values := make(models.FormValues, len(raw))
			for field, v := range raw {
				values[field] = *v
			}
			metrics, calcs := calculator.NewCalculator(plans).Evaluate(values)

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(output{Metrics: metrics, Calculations: calcs})
		},
	}

	for _, f := range flags {
		raw[f.field] = cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().StringVar(&plansFile, "plans", "", "YAML file with pricing plans")
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on a single line")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
