// Package estimator computes carbon storage and ecosystem-service estimates
// for a single tree from its field measurements. All functions are pure:
// identical inputs always produce identical outputs, and out-of-range
// measurements clamp to zeroed results rather than returning errors.
package estimator

import (
	"math"

	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

// Allometric and economic constants. These are species-independent urban
// forestry approximations; changing any of them changes every derived value
// in the inventory, so they are locked by tests.
const (
	// Above-ground biomass follows the pan-tropical power law
	// AGB = a * (rho * dbh^2 * height)^b with a generic wood density.
	biomassCoeff = 0.0673
	biomassExp   = 0.976
	woodDensity  = 0.6

	// Below-ground (root) biomass expansion.
	rootExpansion = 1.28

	// Carbon fraction of dry biomass and the CO2/C molar mass ratio.
	carbonFraction = 0.5
	co2PerCarbon   = 44.0 / 12.0

	// Annual increment of the stored CO2 pool attributed to growth.
	annualSequestration = 0.035

	// Unit prices for the monetary breakdown.
	carbonPricePerKgCO2 = 0.051  // per kg CO2 sequestered annually
	stormwaterPerLiter  = 0.0023 // per liter intercepted annually
	airQualityPerGram   = 0.0109 // per gram of pollutants removed annually

	// Annual per-cm-of-DBH service rates, before condition scaling.
	stormwaterLitersPerCm  = 57.0
	airPollutantGramsPerCm = 9.8
	energyValuePerCm       = 0.31
)

// healthFactor scales stored biomass by condition. Standing dead wood still
// holds a fraction of its carbon.
func healthFactor(c models.Condition) float64 {
	switch c {
	case models.ConditionDamaged:
		return 0.8
	case models.ConditionDead:
		return 0.25
	default:
		return 1.0
	}
}

// serviceFactor scales annual services by condition. A dead tree has no
// foliage and provides none.
func serviceFactor(c models.Condition) float64 {
	switch c {
	case models.ConditionDamaged:
		return 0.66
	case models.ConditionDead:
		return 0.0
	default:
		return 1.0
	}
}

// proximityFactor scales the energy-saving benefit by distance to the
// nearest building.
func proximityFactor(p models.Proximity) float64 {
	switch p {
	case models.ProximityNear:
		return 1.0
	case models.ProximityFar:
		return 0.35
	default:
		return 0.0
	}
}

// CarbonMetrics estimates total biomass, stored carbon and sequestered CO2
// for a tree with the given diameter at breast height (cm) and height (m).
func CarbonMetrics(dbhCm, heightM float64, condition models.Condition) models.CarbonMetrics {
	if dbhCm <= 0 || heightM <= 0 {
		return models.CarbonMetrics{}
	}

	aboveGround := biomassCoeff * math.Pow(woodDensity*dbhCm*dbhCm*heightM, biomassExp)
	biomass := aboveGround * rootExpansion * healthFactor(condition)
	carbon := biomass * carbonFraction
	co2 := carbon * co2PerCarbon

	return models.CarbonMetrics{
		BiomassKg: biomass,
		CarbonKg:  carbon,
		CO2Kg:     co2,
	}
}

// EcosystemServices estimates the annual services a tree provides and their
// monetary breakdown. TotalValue is the sum of the carbon, stormwater,
// air-quality and energy components.
func EcosystemServices(dbhCm, heightM float64, condition models.Condition, proximity models.Proximity) models.EcosystemServices {
	if dbhCm <= 0 || heightM <= 0 {
		return models.EcosystemServices{}
	}

	sf := serviceFactor(condition)
	carbon := CarbonMetrics(dbhCm, heightM, condition)

	stormwater := dbhCm * stormwaterLitersPerCm * sf
	airGrams := dbhCm * airPollutantGramsPerCm * sf

	svc := models.EcosystemServices{
		StormwaterLiters:   stormwater,
		AirPollutantsGrams: airGrams,
		CarbonValue:        carbon.CO2Kg * annualSequestration * carbonPricePerKgCO2 * sf,
		StormwaterValue:    stormwater * stormwaterPerLiter,
		AirQualityValue:    airGrams * airQualityPerGram,
		EnergyValue:        dbhCm * energyValuePerCm * proximityFactor(proximity) * sf,
	}
	svc.TotalValue = svc.CarbonValue + svc.StormwaterValue + svc.AirQualityValue + svc.EnergyValue
	return svc
}
