package decoder

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type ModuleGeometryEntry struct {
	Module  int     `db:"Module"`
	Family  string  `db:"Family"`
	Theta   float64 `db:"Theta"`
	OffsetX float64 `db:"OffsetX"`
	OffsetY float64 `db:"OffsetY"`
	OffsetZ float64 `db:"OffsetZ"`
}

// LoadCalibrationFromDB reads the calibration valid for a run. Every table
// is keyed by run range, MinRun <= run <= MaxRun.
func LoadCalibrationFromDB(db *sqlx.DB, runNumber int) (CalibrationProfile, error) {
	profile := CalibrationProfile{SourceToSample: DEFAULT_SOURCE_TO_SAMPLE}

	modules, err := getModulesFromDB(db, runNumber)
	if err != nil {
		return profile, fmt.Errorf("error getting module geometry from database: %w", err)
	}
	profile.Modules = modules

	energies, err := getEnergiesFromDB(db, runNumber)
	if err != nil {
		return profile, fmt.Errorf("error getting energy calibration from database: %w", err)
	}
	profile.Energies = energies

	flightPath, found, err := getFlightPathFromDB(db, runNumber)
	if err != nil {
		return profile, fmt.Errorf("error getting flight path from database: %w", err)
	}
	if found {
		profile.SourceToSample = flightPath
	}
	return profile, nil
}

func getModulesFromDB(db *sqlx.DB, runNumber int) ([]ModuleGeometry, error) {
	query := "SELECT Module, Family, Theta, OffsetX, OffsetY, OffsetZ FROM ModuleGeometry WHERE MinRun <= ? and MaxRun >= ? ORDER BY Module"
	logger.Info("Module geometry read from DB", "database")

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	modules := make([]ModuleGeometry, 0)
	for rows.Next() {
		result := ModuleGeometryEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		family, err := ParseDetectorFamily(result.Family)
		if err != nil {
			return nil, moduleConfigError(result.Module, err.Error())
		}
		if result.Module < 0 || result.Module > int(MODULE_MASK>>MODULE_SHIFT) {
			return nil, moduleConfigError(result.Module, "module id does not fit in the bus field")
		}
		modules = append(modules, ModuleGeometry{
			Module: uint8(result.Module),
			Family: family,
			Theta:  result.Theta,
		})
		modules[len(modules)-1].Offset.X = result.OffsetX
		modules[len(modules)-1].Offset.Y = result.OffsetY
		modules[len(modules)-1].Offset.Z = result.OffsetZ
	}
	return modules, rows.Err()
}

func getEnergiesFromDB(db *sqlx.DB, runNumber int) ([]EnergyCalibration, error) {
	query := "SELECT Name, Ei, T0, TimeOffset, FrameShift FROM EnergyCalibration WHERE MinRun <= ? and MaxRun >= ? ORDER BY Name"
	logger.Info("Energy calibration read from DB", "database")

	energies := make([]EnergyCalibration, 0)
	if err := db.Select(&energies, query, runNumber, runNumber); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	return energies, nil
}

func getFlightPathFromDB(db *sqlx.DB, runNumber int) (float64, bool, error) {
	query := "SELECT SourceToSample FROM FlightPath WHERE MinRun <= ? and MaxRun >= ?"

	var distances []float64
	if err := db.Select(&distances, query, runNumber, runNumber); err != nil {
		return 0, false, fmt.Errorf("error querying database: %w", err)
	}
	if len(distances) == 0 {
		return 0, false, nil
	}
	return distances[0], true, nil
}
