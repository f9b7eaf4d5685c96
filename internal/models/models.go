package models

import (
	"database/sql"
	"time"
)

// Condition describes the observed health of a tree.
type Condition string

const (
	ConditionHealthy Condition = "healthy"
	ConditionDamaged Condition = "damaged"
	ConditionDead    Condition = "dead"
)

// ParseCondition maps free-form condition text to a known Condition.
// Unrecognized values default to healthy.
func ParseCondition(s string) Condition {
	switch Condition(s) {
	case ConditionHealthy, ConditionDamaged, ConditionDead:
		return Condition(s)
	}
	return ConditionHealthy
}

// Proximity describes how close a tree stands to the nearest building.
type Proximity string

const (
	ProximityNone Proximity = "none"
	ProximityNear Proximity = "near" // within ~12m, full shading benefit
	ProximityFar  Proximity = "far"
)

func ParseProximity(s string) Proximity {
	switch Proximity(s) {
	case ProximityNone, ProximityNear, ProximityFar:
		return Proximity(s)
	}
	return ProximityNone
}

// CarbonMetrics holds stored-carbon estimates derived from a tree's
// measurements. Recomputed whenever dbh, height or condition change.
type CarbonMetrics struct {
	BiomassKg float64 `json:"biomass_kg"`
	CarbonKg  float64 `json:"carbon_kg"`
	CO2Kg     float64 `json:"co2_kg"`
}

// EcosystemServices holds annual ecosystem-service estimates and their
// monetary breakdown. TotalValue is always the sum of the four components.
type EcosystemServices struct {
	StormwaterLiters   float64 `json:"stormwater_liters"`
	AirPollutantsGrams float64 `json:"air_pollutants_grams"`
	CarbonValue        float64 `json:"carbon_value"`
	StormwaterValue    float64 `json:"stormwater_value"`
	AirQualityValue    float64 `json:"air_quality_value"`
	EnergyValue        float64 `json:"energy_value"`
	TotalValue         float64 `json:"total_value"`
}

// TreeRecord is a single inventoried tree. Derived fields (Carbon, Services)
// are pure functions of DBHCm, HeightM, Condition and Proximity and are never
// persisted without being recomputed from those measurements first.
type TreeRecord struct {
	ID         int64             `json:"id"`
	Species    string            `json:"species"`
	DBHCm      float64           `json:"dbh_cm"`
	HeightM    float64           `json:"height_m"`
	Condition  Condition         `json:"condition"`
	Proximity  Proximity         `json:"proximity"`
	Notes      string            `json:"notes"`
	Photo      []byte            `json:"-"`
	Latitude   sql.NullFloat64   `json:"latitude"`
	Longitude  sql.NullFloat64   `json:"longitude"`
	RecordedAt time.Time         `json:"recorded_at"`
	Carbon     CarbonMetrics     `json:"carbon"`
	Services   EcosystemServices `json:"services"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ImportFailure records a single file that failed during a bulk import.
type ImportFailure struct {
	ID           int64
	RunID        int64
	FileName     string
	ErrorMessage string
	CreatedAt    time.Time
}

// InventorySummary aggregates the whole collection for the dashboard
// and the PDF report header.
type InventorySummary struct {
	TreeCount          int
	SpeciesCount       int
	TotalBiomassKg     float64
	TotalCarbonKg      float64
	TotalCO2Kg         float64
	TotalStormwaterL   float64
	TotalAirGrams      float64
	TotalAnnualValue   float64
	HealthyCount       int
	DamagedCount       int
	DeadCount          int
	GeolocatedCount    int
}
