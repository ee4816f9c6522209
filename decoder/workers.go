package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	decoder "github.com/AlexanderBackis/MGmesytecAnalysis/pkg"
)

// FileResult carries one decoded file from a worker back to the collecting
// goroutine, the only one that touches HDF5.
type FileResult struct {
	Filename  string
	Decoded   decoder.Result
	Summaries []decoder.ModuleSummary
	Stats     decoder.Stats
	Err       error
}

func worker(id int, d *decoder.Decoder, config decoder.Configuration, jobs <-chan string, results chan<- FileResult) {
	for filename := range jobs {
		if VerbosityLevel > 1 {
			logger.Info(fmt.Sprintf("Worker %d processing %s", id, filename), "workers")
		}
		results <- processFile(d, config, filename)
	}
}

func processFile(d *decoder.Decoder, config decoder.Configuration, filename string) (result FileResult) {
	result.Filename = filename
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("decoder recovered from panic on file %s: %v", filename, r)
		}
	}()

	words, err := decoder.ReadCaptureFile(filename, config.MaxSizeMB)
	if err != nil {
		result.Err = err
		return result
	}
	decoded, err := d.Decode(words)
	if err != nil {
		result.Err = err
		return result
	}
	result.Decoded = decoded
	result.Stats = decoded.Stats
	result.Summaries = decoder.Summarize(decoded, d.Geometry().Modules())
	return result
}

// writeFile stores a decoded file. The HDF5 library is not thread safe, so
// it is only called from the goroutine collecting results.
func writeFile(d *decoder.Decoder, config decoder.Configuration, result FileResult) error {
	if !config.WriteData {
		return nil
	}
	fileOut := outputFilename(config.DirOut, result.Filename)
	err := decoder.WriteDecodedFile(fileOut, d, result.Decoded, config.CompressionLevel, config.WriteEvents)
	if err != nil {
		return fmt.Errorf("error writing %s: %w", fileOut, err)
	}
	return nil
}

func outputFilename(dirOut string, fileIn string) string {
	base := filepath.Base(fileIn)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dirOut, base+".h5")
}

// runWorkers decodes every input file, writes it and prints its summary to
// out. It returns the number of files that failed.
func runWorkers(d *decoder.Decoder, config decoder.Configuration, out io.Writer) int {
	jobs := make(chan string, len(config.FilesIn))
	results := make(chan FileResult, len(config.FilesIn))

	nWorkers := max(config.NumWorkers, 1)
	for w := 1; w <= nWorkers; w++ {
		go worker(w, d, config, jobs, results)
	}
	for _, filename := range config.FilesIn {
		jobs <- filename
	}
	close(jobs)

	failed := 0
	for range config.FilesIn {
		result := <-results
		if result.Err != nil {
			logger.Error(fmt.Sprintf("%s: %v", result.Filename, result.Err))
			failed++
			continue
		}
		if err := writeFile(d, config, result); err != nil {
			logger.Error(fmt.Sprintf("%s: %v", result.Filename, err))
			failed++
			continue
		}
		logger.Info(fmt.Sprintf("Decoded %s", result.Filename), "workers")
		if err := decoder.WriteSummary(out, result.Summaries, result.Stats); err != nil {
			logger.Error(err.Error())
		}
	}
	return failed
}
