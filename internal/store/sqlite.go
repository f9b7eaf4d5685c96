package store

import (
	"database/sql"
	"time"

	"github.com/PakBOSS-007/Jaga-pohon/internal/estimator"
	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

// recompute refreshes the derived fields from the source measurements.
// Every write path goes through here so stale derived values can never
// reach the database.
func recompute(tr *models.TreeRecord) {
	tr.Carbon = estimator.CarbonMetrics(tr.DBHCm, tr.HeightM, tr.Condition)
	tr.Services = estimator.EcosystemServices(tr.DBHCm, tr.HeightM, tr.Condition, tr.Proximity)
}

// InsertTree recomputes the derived fields, persists the record and assigns
// its identifier. Listing order is newest-first, so a fresh insert appears
// at the head of the collection.
func (s *Store) InsertTree(tr *models.TreeRecord) error {
	recompute(tr)
	if tr.RecordedAt.IsZero() {
		tr.RecordedAt = time.Now().UTC()
	}

	result, err := s.db.Exec(`
		INSERT INTO trees (species, dbh_cm, height_m, condition, proximity, notes, photo,
			latitude, longitude, recorded_at,
			biomass_kg, carbon_kg, co2_kg,
			stormwater_l, air_pollutants_g,
			carbon_value, stormwater_value, air_quality_value, energy_value, total_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tr.Species, tr.DBHCm, tr.HeightM, string(tr.Condition), string(tr.Proximity), tr.Notes, tr.Photo,
		tr.Latitude, tr.Longitude, tr.RecordedAt,
		tr.Carbon.BiomassKg, tr.Carbon.CarbonKg, tr.Carbon.CO2Kg,
		tr.Services.StormwaterLiters, tr.Services.AirPollutantsGrams,
		tr.Services.CarbonValue, tr.Services.StormwaterValue, tr.Services.AirQualityValue,
		tr.Services.EnergyValue, tr.Services.TotalValue)
	if err != nil {
		return err
	}

	tr.ID, err = result.LastInsertId()
	return err
}

// UpdateTree recomputes the derived fields from the edited measurements and
// replaces the matching row in place. The identifier never changes, so the
// record keeps its position in the collection.
func (s *Store) UpdateTree(tr *models.TreeRecord) error {
	recompute(tr)

	res, err := s.db.Exec(`
		UPDATE trees SET
			species = ?, dbh_cm = ?, height_m = ?, condition = ?, proximity = ?, notes = ?,
			latitude = ?, longitude = ?,
			biomass_kg = ?, carbon_kg = ?, co2_kg = ?,
			stormwater_l = ?, air_pollutants_g = ?,
			carbon_value = ?, stormwater_value = ?, air_quality_value = ?, energy_value = ?, total_value = ?
		WHERE id = ?
	`, tr.Species, tr.DBHCm, tr.HeightM, string(tr.Condition), string(tr.Proximity), tr.Notes,
		tr.Latitude, tr.Longitude,
		tr.Carbon.BiomassKg, tr.Carbon.CarbonKg, tr.Carbon.CO2Kg,
		tr.Services.StormwaterLiters, tr.Services.AirPollutantsGrams,
		tr.Services.CarbonValue, tr.Services.StormwaterValue, tr.Services.AirQualityValue,
		tr.Services.EnergyValue, tr.Services.TotalValue, tr.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const treeColumns = `id, species, dbh_cm, height_m, condition, proximity, notes,
	latitude, longitude, recorded_at,
	biomass_kg, carbon_kg, co2_kg,
	stormwater_l, air_pollutants_g,
	carbon_value, stormwater_value, air_quality_value, energy_value, total_value,
	created_at`

func scanTree(scan func(dest ...any) error) (*models.TreeRecord, error) {
	var tr models.TreeRecord
	var condition, proximity string
	err := scan(&tr.ID, &tr.Species, &tr.DBHCm, &tr.HeightM, &condition, &proximity, &tr.Notes,
		&tr.Latitude, &tr.Longitude, &tr.RecordedAt,
		&tr.Carbon.BiomassKg, &tr.Carbon.CarbonKg, &tr.Carbon.CO2Kg,
		&tr.Services.StormwaterLiters, &tr.Services.AirPollutantsGrams,
		&tr.Services.CarbonValue, &tr.Services.StormwaterValue, &tr.Services.AirQualityValue,
		&tr.Services.EnergyValue, &tr.Services.TotalValue,
		&tr.CreatedAt)
	if err != nil {
		return nil, err
	}
	tr.Condition = models.Condition(condition)
	tr.Proximity = models.Proximity(proximity)
	return &tr, nil
}

func (s *Store) GetTree(id int64) (*models.TreeRecord, error) {
	row := s.db.QueryRow(`SELECT `+treeColumns+` FROM trees WHERE id = ?`, id)
	tr, err := scanTree(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// ListTrees returns the full collection, newest-first.
func (s *Store) ListTrees() ([]models.TreeRecord, error) {
	rows, err := s.db.Query(`SELECT ` + treeColumns + ` FROM trees ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trees []models.TreeRecord
	for rows.Next() {
		tr, err := scanTree(rows.Scan)
		if err != nil {
			return nil, err
		}
		trees = append(trees, *tr)
	}
	return trees, rows.Err()
}

func (s *Store) GetTreePhoto(id int64) ([]byte, error) {
	var photo []byte
	err := s.db.QueryRow(`SELECT photo FROM trees WHERE id = ?`, id).Scan(&photo)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *Store) CountTrees() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM trees`).Scan(&count)
	return count, err
}

// Summary aggregates the collection for the dashboard and report header.
func (s *Store) Summary() (*models.InventorySummary, error) {
	var sum models.InventorySummary
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COUNT(DISTINCT species),
			COALESCE(SUM(biomass_kg), 0),
			COALESCE(SUM(carbon_kg), 0),
			COALESCE(SUM(co2_kg), 0),
			COALESCE(SUM(stormwater_l), 0),
			COALESCE(SUM(air_pollutants_g), 0),
			COALESCE(SUM(total_value), 0),
			COALESCE(SUM(CASE WHEN condition = 'healthy' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN condition = 'damaged' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN condition = 'dead' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN latitude IS NOT NULL AND longitude IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM trees
	`).Scan(&sum.TreeCount, &sum.SpeciesCount,
		&sum.TotalBiomassKg, &sum.TotalCarbonKg, &sum.TotalCO2Kg,
		&sum.TotalStormwaterL, &sum.TotalAirGrams, &sum.TotalAnnualValue,
		&sum.HealthyCount, &sum.DamagedCount, &sum.DeadCount, &sum.GeolocatedCount)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}
