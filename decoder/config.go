package main

import (
	"fmt"

	decoder "github.com/AlexanderBackis/MGmesytecAnalysis/pkg"
)

func printConfiguration(config decoder.Configuration) {
	logger.Info(fmt.Sprintf("Files in: %v", config.FilesIn), "config")
	logger.Info(fmt.Sprintf("Dir out: %s", config.DirOut), "config")
	logger.Info(fmt.Sprintf("Calibration file: %s", config.CalibrationFile), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Energy setting: %s", config.EnergySetting), "config")
	logger.Info(fmt.Sprintf("Merge groups: %v", config.AllMergeGroups()), "config")
	logger.Info(fmt.Sprintf("ILL detectors: %v", config.ILLDetectors), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Write events: %t", config.WriteEvents), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Max size: %d MB", config.MaxSizeMB), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
}
