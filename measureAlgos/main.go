package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	decoder "github.com/AlexanderBackis/MGmesytecAnalysis/pkg"
)

var logger = decoder.NewSlogLogger(os.Stdout, os.Stderr)

const REPETITIONS = 3

type Measurement struct {
	CompressionLevel int
	Duration         time.Duration
	Size             int64
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	fileOut := flag.String("out", filepath.Join(os.TempDir(), "measureAlgos.h5"), "Scratch output file")
	flag.Parse()

	configuration, err := decoder.LoadConfiguration(*configFilename)
	if err != nil {
		logger.Error(fmt.Errorf("Error reading configuration file: %w", err).Error())
		os.Exit(1)
	}
	decoder.SetLogger(logger)
	if len(configuration.FilesIn) == 0 || configuration.CalibrationFile == "" {
		logger.Error("measureAlgos needs files_in and calibration_file")
		os.Exit(1)
	}

	profile, err := decoder.LoadCalibrationFile(configuration.CalibrationFile)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	profile.MarkILL(configuration.ILLDetectors)
	d, err := decoder.NewDecoder(profile, configuration.DecoderOptions())
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	words, err := decoder.ReadCaptureFile(configuration.FilesIn[0], configuration.MaxSizeMB)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	start := time.Now()
	result, err := d.Decode(words)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Decoded %d words in %d ms: %d events, %d clusters",
		len(words), time.Since(start).Milliseconds(), len(result.Events), len(result.Clusters)), "main")

	for compressionLevel := 0; compressionLevel < 10; compressionLevel++ {
		for i := 0; i < REPETITIONS; i++ {
			m, err := measure(d, result, *fileOut, compressionLevel, configuration.WriteEvents)
			if err != nil {
				logger.Error(fmt.Sprintf("compression level %d: %v", compressionLevel, err))
				continue
			}
			fmt.Printf("(hdf5, comp %d) Time: %d ms, size %d bytes\n", m.CompressionLevel, m.Duration.Milliseconds(), m.Size)
		}
	}
	os.Remove(*fileOut)
}

// measure writes the decoded result once and reports the elapsed time and
// the resulting file size.
func measure(d *decoder.Decoder, result decoder.Result, fileOut string, compressionLevel int, writeEvents bool) (Measurement, error) {
	m := Measurement{CompressionLevel: compressionLevel}
	start := time.Now()
	if err := decoder.WriteDecodedFile(fileOut, d, result, compressionLevel, writeEvents); err != nil {
		return m, err
	}
	m.Duration = time.Since(start)

	fileInfo, err := os.Stat(fileOut)
	if err != nil {
		return m, fmt.Errorf("error getting file info: %w", err)
	}
	m.Size = fileInfo.Size()
	return m, nil
}
