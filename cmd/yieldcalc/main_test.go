package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (output, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return output{}, err
	}
	var out output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out, nil
}

func TestYieldcalcDefaults(t *testing.T) {
	out, err := execute(t,
		"--property-value-uf", "4000",
		"--rent-clp", "600000",
		"--maintenance", "1200000",
		"--compact",
	)
	require.NoError(t, err)

	assert.Equal(t, 37000.0, out.Metrics.UFValue)
	assert.Equal(t, 148000000.0, out.Metrics.PropertyValue)
	assert.Equal(t, 500000.0, out.Metrics.MonthlyNetIncome)
	assert.Len(t, out.Calculations.Plans, 3)
}

func TestYieldcalcUFRent(t *testing.T) {
	out, err := execute(t, "--currency", "UF", "--rent-uf", "15", "--uf", "38000")
	require.NoError(t, err)

	assert.True(t, out.Metrics.IsUFRent)
	assert.Equal(t, 570000.0, out.Metrics.BaseRent)
	assert.Zero(t, out.Metrics.CapRate)
}

func TestYieldcalcPlansFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`plans:
  - code: A
    name: Only
    rent_factor: 1
    vacancy_months: 0
`), 0o600))

	out, err := execute(t, "--rent-clp", "100000", "--plans", path)
	require.NoError(t, err)
	require.Len(t, out.Calculations.Plans, 1)
	assert.Equal(t, "A", out.Calculations.RecommendedPlan)
	assert.Equal(t, 100000.0, out.Calculations.Plans[0].MonthlyRent)
}

func TestYieldcalcRejectsMissingPlansFile(t *testing.T) {
	_, err := execute(t, "--plans", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
