package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	decoder "github.com/AlexanderBackis/MGmesytecAnalysis/pkg"
)

var configuration decoder.Configuration

var (
	logger         decoder.SlogLogger
	VerbosityLevel int
)

func init() {
	logger = decoder.NewSlogLogger(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = decoder.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	decoder.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration)
	}

	profile, err := loadCalibration(configuration)
	if err != nil {
		message := fmt.Errorf("Error loading calibration: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	profile.MarkILL(configuration.ILLDetectors)

	d, err := decoder.NewDecoder(profile, configuration.DecoderOptions())
	if err != nil {
		message := fmt.Errorf("Error building decoder: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}

	start := time.Now()
	failed := runWorkers(d, configuration, os.Stdout)
	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
	if failed > 0 {
		logger.Error(fmt.Sprintf("%d of %d files failed", failed, len(configuration.FilesIn)))
		os.Exit(1)
	}
}

// loadCalibration reads the calibration file when given, the database
// otherwise.
func loadCalibration(config decoder.Configuration) (decoder.CalibrationProfile, error) {
	if config.CalibrationFile != "" {
		if VerbosityLevel > 0 {
			logger.Info(fmt.Sprintf("Calibration read from %s", config.CalibrationFile), "main")
		}
		return decoder.LoadCalibrationFile(config.CalibrationFile)
	}
	if config.NoDB {
		return decoder.CalibrationProfile{}, fmt.Errorf("no calibration file given and database access disabled")
	}

	dbConn, err := decoder.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return decoder.CalibrationProfile{}, fmt.Errorf("error connecting to database: %w", err)
	}
	defer dbConn.Close()
	return decoder.LoadCalibrationFromDB(dbConn, config.RunNumber)
}
