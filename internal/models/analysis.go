package models

import "time"

// Analysis statuses
const (
	StatusDraft    = "draft"
	StatusReview   = "review"
	StatusApproved = "approved"
	StatusArchived = "archived"
)

// Property is the snapshot of the analysed property
type Property struct {
	Address      string  `json:"address"`
	Commune      string  `json:"commune"`
	PropertyType string  `json:"property_type"`
	AreaM2       float64 `json:"area_m2"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	ParkingSpots int     `json:"parking_spots"`
	ValueCLP     float64 `json:"value_clp"`
	ValueUF      float64 `json:"value_uf"`
}

// ComparableProperty is a nearby listing used as a market reference
type ComparableProperty struct {
	Address     string  `json:"address"`
	MonthlyRent float64 `json:"monthly_rent"`
	AreaM2      float64 `json:"area_m2"`
	Bedrooms    int     `json:"bedrooms"`
}

// Expenses lists the annual costs of holding the property, in CLP
type Expenses struct {
	Maintenance float64 `json:"maintenance"`
	PropertyTax float64 `json:"property_tax"`
	Insurance   float64 `json:"insurance"`
}

// Analysis is the market snapshot entered by the broker
type Analysis struct {
	Currency      Currency             `json:"currency"`
	SuggestedRent float64              `json:"suggested_rent"`
	UFValue       float64              `json:"uf_value"`
	Expenses      Expenses             `json:"expenses"`
	Comparables   []ComparableProperty `json:"comparables"`
	Notes         string               `json:"notes,omitempty"`
}

// Metadata tracks the lifecycle of a saved analysis
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
}

// SavedAnalysis is the persisted unit
type SavedAnalysis struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Property     Property           `json:"property"`
	Analysis     Analysis           `json:"analysis"`
	Calculations RentalCalculations `json:"calculations"`
	Metadata     Metadata           `json:"metadata"`
}

// AnalysisPatch carries the top-level fields of a partial update.
// Nil fields are left untouched. Status and UpdatedAt are applied after
// Metadata, so they change a single field of the stored metadata.
type AnalysisPatch struct {
	Title        *string             `json:"title,omitempty"`
	Property     *Property           `json:"property,omitempty"`
	Analysis     *Analysis           `json:"analysis,omitempty"`
	Calculations *RentalCalculations `json:"calculations,omitempty"`
	Metadata     *Metadata           `json:"metadata,omitempty"`
	Status       *string             `json:"status,omitempty"`
	UpdatedAt    *time.Time          `json:"-"`
}

// Apply shallow-merges the patch onto a and returns the result
func (p AnalysisPatch) Apply(a SavedAnalysis) SavedAnalysis {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Property != nil {
		a.Property = *p.Property
	}
	if p.Analysis != nil {
		a.Analysis = *p.Analysis
	}
	if p.Calculations != nil {
		a.Calculations = *p.Calculations
	}
	if p.Metadata != nil {
		a.Metadata = *p.Metadata
	}
	if p.Status != nil {
		a.Metadata.Status = *p.Status
	}
	if p.UpdatedAt != nil {
		a.Metadata.UpdatedAt = *p.UpdatedAt
	}
	return a
}

// Clone returns a copy that shares no slices with a
func (a SavedAnalysis) Clone() SavedAnalysis {
	out := a
	if a.Analysis.Comparables != nil {
		out.Analysis.Comparables = append([]ComparableProperty(nil), a.Analysis.Comparables...)
	}
	if a.Calculations.Plans != nil {
		out.Calculations.Plans = append([]PlanComparison(nil), a.Calculations.Plans...)
	}
	if a.Metadata.Tags != nil {
		out.Metadata.Tags = append([]string(nil), a.Metadata.Tags...)
	}
	return out
}

// HasTag reports whether the analysis carries tag
func (a SavedAnalysis) HasTag(tag string) bool {
	for _, t := range a.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Proposal is the subset of an analysis forwarded for human review
type Proposal struct {
	AnalysisID      string             `json:"analysis_id"`
	Title           string             `json:"title"`
	Address         string             `json:"address"`
	PropertyValue   float64            `json:"property_value"`
	RecommendedPlan string             `json:"recommended_plan"`
	PlanRents       map[string]float64 `json:"plan_rents"`
	SentAt          time.Time          `json:"sent_at"`
}

// UFRate is a reference unit quotation in CLP
type UFRate struct {
	Value    float64   `json:"value"`
	Date     string    `json:"date,omitempty"`
	Source   string    `json:"source"`
	Fallback bool      `json:"fallback"`
	Fetched  time.Time `json:"fetched_at"`
}
