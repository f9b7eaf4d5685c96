package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

// seedTrees is the built-in demo dataset. It is loaded whenever the
// inventory is empty so a fresh install never presents a blank map.
var seedTrees = []models.TreeRecord{
	{
		Species:    "Samanea saman",
		DBHCm:      85,
		HeightM:    22,
		Condition:  models.ConditionHealthy,
		Proximity:  models.ProximityFar,
		Notes:      "Mature rain tree shading the east car park.",
		Latitude:   sql.NullFloat64{Float64: -6.2146, Valid: true},
		Longitude:  sql.NullFloat64{Float64: 106.8451, Valid: true},
		RecordedAt: time.Date(2024, 11, 2, 3, 15, 0, 0, time.UTC),
	},
	{
		Species:    "Ficus benjamina",
		DBHCm:      52,
		HeightM:    16,
		Condition:  models.ConditionHealthy,
		Proximity:  models.ProximityNear,
		Notes:      "Weeping fig beside the office annex; roots lifting pavers.",
		Latitude:   sql.NullFloat64{Float64: -6.2139, Valid: true},
		Longitude:  sql.NullFloat64{Float64: 106.8457, Valid: true},
		RecordedAt: time.Date(2024, 11, 2, 3, 40, 0, 0, time.UTC),
	},
	{
		Species:    "Mangifera indica",
		DBHCm:      34,
		HeightM:    11,
		Condition:  models.ConditionDamaged,
		Proximity:  models.ProximityNear,
		Notes:      "Mango with a split leader after the December storm.",
		Latitude:   sql.NullFloat64{Float64: -6.2151, Valid: true},
		Longitude:  sql.NullFloat64{Float64: 106.8442, Valid: true},
		RecordedAt: time.Date(2024, 11, 3, 2, 5, 0, 0, time.UTC),
	},
	{
		Species:    "Swietenia macrophylla",
		DBHCm:      18,
		HeightM:    7,
		Condition:  models.ConditionHealthy,
		Proximity:  models.ProximityNone,
		Notes:      "Young mahogany planted during the 2022 greening drive.",
		RecordedAt: time.Date(2024, 11, 3, 2, 30, 0, 0, time.UTC),
	},
	{
		Species:    "Delonix regia",
		DBHCm:      41,
		HeightM:    9,
		Condition:  models.ConditionDead,
		Proximity:  models.ProximityFar,
		Notes:      "Flame tree, standing dead; flagged for removal assessment.",
		Latitude:   sql.NullFloat64{Float64: -6.2133, Valid: true},
		Longitude:  sql.NullFloat64{Float64: 106.8449, Valid: true},
		RecordedAt: time.Date(2024, 11, 4, 1, 55, 0, 0, time.UTC),
	},
}

// SeedIfEmpty loads the demo dataset when the inventory has no trees.
// Returns the number of records inserted.
func (s *Store) SeedIfEmpty() (int, error) {
	count, err := s.CountTrees()
	if err != nil {
		return 0, fmt.Errorf("count trees: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	return s.Seed()
}

// Seed inserts the demo dataset unconditionally.
func (s *Store) Seed() (int, error) {
	inserted := 0
	// Insert in reverse so the first seed entry lists first (newest-first order).
	for i := len(seedTrees) - 1; i >= 0; i-- {
		tr := seedTrees[i]
		if err := s.InsertTree(&tr); err != nil {
			return inserted, fmt.Errorf("insert seed tree %q: %w", tr.Species, err)
		}
		inserted++
	}
	return inserted, nil
}
