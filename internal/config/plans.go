package config

import (
	"fmt"
	"os"

	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
	"gopkg.in/yaml.v3"
)

type plansFile struct {
	Plans []models.PlanSettings `yaml:"plans"`
}

// LoadPlans reads pricing plans from a YAML file. An empty path yields the default plans.
func LoadPlans(path string) ([]models.PlanSettings, error) {
	if path == "" {
		return calculator.DefaultPlans(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans file: %w", err)
	}

	var f plansFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plans file: %w", err)
	}
	if err := calculator.ValidatePlans(f.Plans); err != nil {
		return nil, fmt.Errorf("invalid plans file %s: %w", path, err)
	}
	return f.Plans, nil
}
