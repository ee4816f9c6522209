package decoder

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type Writer struct {
	File           *hdf5.File
	Filename       string
	EventsGroup    *hdf5.Group
	ClustersGroup  *hdf5.Group
	TriggersGroup  *hdf5.Group
	RunGroup       *hdf5.Group
	EventTable     *hdf5.Dataset
	ClusterTable   *hdf5.Dataset
	TriggerTable   *hdf5.Dataset
	ModuleTable    *hdf5.Dataset
	RunInfoTable   *hdf5.Dataset
	EventCounter   int
	ClusterCounter int
	TriggerCounter int
	RunInfoWritten bool
}

// NewWriter creates the output file and its tables. On error everything
// created so far is closed again.
func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	logger.Info(fmt.Sprintf("Creating file: %s", filename), "writer")

	writer := &Writer{Filename: filename}
	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	writer.File = file

	err = writer.createTables(compressionLevel)
	if err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}
	return writer, nil
}

func (w *Writer) createTables(compressionLevel int) error {
	var err error
	if w.EventsGroup, err = createGroup(w.File, "Events"); err != nil {
		return err
	}
	if w.ClustersGroup, err = createGroup(w.File, "Clusters"); err != nil {
		return err
	}
	if w.TriggersGroup, err = createGroup(w.File, "Triggers"); err != nil {
		return err
	}
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.EventsGroup, "events", RawEventHDF5{}, compressionLevel); err != nil {
		return err
	}
	if w.ClusterTable, err = createTable(w.ClustersGroup, "clusters", ClusterHDF5{}, compressionLevel); err != nil {
		return err
	}
	if w.TriggerTable, err = createTable(w.TriggersGroup, "triggers", TriggerHDF5{}, compressionLevel); err != nil {
		return err
	}
	if w.ModuleTable, err = createTable(w.RunGroup, "modules", ModuleHDF5{}, compressionLevel); err != nil {
		return err
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, compressionLevel); err != nil {
		return err
	}
	return nil
}

// WriteResult appends the records of one decode pass. Raw events are only
// written when writeEvents is set.
func (w *Writer) WriteResult(result Result, writeEvents bool) error {
	if writeEvents {
		events := make([]RawEventHDF5, len(result.Events))
		for i, event := range result.Events {
			events[i] = rawEventToHDF5(event)
		}
		if err := writeArrayToTable(w.EventTable, &events, w.EventCounter); err != nil {
			return fmt.Errorf("error writing raw events: %w", err)
		}
		w.EventCounter += len(events)
	}

	clusters := make([]ClusterHDF5, len(result.Clusters))
	for i, event := range result.Clusters {
		clusters[i] = clusterToHDF5(event)
	}
	if err := writeArrayToTable(w.ClusterTable, &clusters, w.ClusterCounter); err != nil {
		return fmt.Errorf("error writing clusters: %w", err)
	}
	w.ClusterCounter += len(clusters)

	triggers := make([]TriggerHDF5, len(result.Triggers))
	for i, timestamp := range result.Triggers {
		triggers[i] = TriggerHDF5{timestamp: timestamp}
	}
	if err := writeArrayToTable(w.TriggerTable, &triggers, w.TriggerCounter); err != nil {
		return fmt.Errorf("error writing triggers: %w", err)
	}
	w.TriggerCounter += len(triggers)
	return nil
}

// WriteRunInfo stores the calibration used by the decoder and the stream
// counters. It is written once per file.
func (w *Writer) WriteRunInfo(d *Decoder, stats Stats) error {
	if w.RunInfoWritten {
		return nil
	}

	modules := make([]ModuleHDF5, 0)
	for _, id := range d.geometry.Modules() {
		m, _ := d.geometry.Module(id)
		modules = append(modules, moduleToHDF5(m))
	}
	if err := writeArrayToTable(w.ModuleTable, &modules, 0); err != nil {
		return fmt.Errorf("error writing module table: %w", err)
	}

	info := RunInfoHDF5{
		sourceToSample: d.sourceToSample,
		words:          int64(stats.Words),
		windows:        int64(stats.Windows),
		malformed:      int64(stats.Malformed),
		truncated:      int64(stats.TruncatedWindows),
	}
	if d.energy != nil {
		info.energySetting = convertToHdf5String(d.energy.Name)
		info.ei = d.energy.IncidentEnergy
	}
	if err := writeEntryToTable(w.RunInfoTable, info, 0); err != nil {
		return fmt.Errorf("error writing run info: %w", err)
	}
	w.RunInfoWritten = true
	return nil
}

func (w *Writer) Close() error {
	logger.Info(fmt.Sprintf("Closing file hdf writer %s", w.Filename), "writer")
	var errs []error

	closers := []struct {
		name   string
		closer interface{ Close() error }
	}{
		{"event table", datasetCloser(w.EventTable)},
		{"cluster table", datasetCloser(w.ClusterTable)},
		{"trigger table", datasetCloser(w.TriggerTable)},
		{"module table", datasetCloser(w.ModuleTable)},
		{"run info table", datasetCloser(w.RunInfoTable)},
		{"events group", groupCloser(w.EventsGroup)},
		{"clusters group", groupCloser(w.ClustersGroup)},
		{"triggers group", groupCloser(w.TriggersGroup)},
		{"run group", groupCloser(w.RunGroup)},
	}
	for _, c := range closers {
		if c.closer == nil {
			continue
		}
		if err := c.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", c.name, err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Typed nil pointers must not reach the interface, they would not compare
// equal to nil.
func datasetCloser(d *hdf5.Dataset) interface{ Close() error } {
	if d == nil {
		return nil
	}
	return d
}

func groupCloser(g *hdf5.Group) interface{ Close() error } {
	if g == nil {
		return nil
	}
	return g
}

// WriteDecodedFile writes one decoded capture file. Raw events are skipped
// unless writeEvents is set.
func WriteDecodedFile(filename string, d *Decoder, result Result, compressionLevel int, writeEvents bool) (err error) {
	writer, err := NewWriter(filename, compressionLevel)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if err = writer.WriteResult(result, writeEvents); err != nil {
		return err
	}
	return writer.WriteRunInfo(d, result.Stats)
}
