package decoder

import "fmt"

type Options struct {
	// Modules of one group are read out as a single detector, a bus change
	// inside a group does not start a new cluster.
	MergeGroups [][]uint8
	// Name of the incident-energy setting. Empty disables the energy
	// transfer computation.
	EnergySetting string
	Verbosity     int
}

// Decoder turns read-out word streams into events. It only holds read-only
// calibration data and can decode several streams concurrently.
type Decoder struct {
	geometry       *Geometry
	energy         *EnergyCalibration
	sourceToSample float64
	mergeGroups    map[uint8]int
	verbosity      int
}

func NewDecoder(profile CalibrationProfile, options Options) (*Decoder, error) {
	geometry, err := NewGeometry(profile.Modules)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		geometry:       geometry,
		sourceToSample: profile.SourceToSample,
		mergeGroups:    make(map[uint8]int),
		verbosity:      options.Verbosity,
	}
	if d.sourceToSample <= 0 {
		d.sourceToSample = DEFAULT_SOURCE_TO_SAMPLE
	}

	for i, group := range options.MergeGroups {
		for _, module := range group {
			if !geometry.Has(module) {
				return nil, moduleConfigError(int(module), "merge group module has no geometry")
			}
			if other, ok := d.mergeGroups[module]; ok && other != i {
				return nil, moduleConfigError(int(module), "module belongs to more than one merge group")
			}
			d.mergeGroups[module] = i
		}
	}

	if options.EnergySetting != "" {
		energy, ok := profile.Energy(options.EnergySetting)
		if !ok {
			return nil, configError(fmt.Sprintf("unknown energy setting %q", options.EnergySetting))
		}
		if energy.IncidentEnergy <= 0 {
			return nil, configError(fmt.Sprintf("energy setting %q has non-positive incident energy", energy.Name))
		}
		d.energy = &energy
	}
	return d, nil
}

func (d *Decoder) Geometry() *Geometry {
	return d.geometry
}

// NewClusterer returns a state machine for one stream, for callers feeding
// words incrementally. Words fed this way skip the configuration check done
// by Decode.
func (d *Decoder) NewClusterer() *Clusterer {
	return &Clusterer{
		geometry:       d.geometry,
		energy:         d.energy,
		sourceToSample: d.sourceToSample,
		mergeGroups:    d.mergeGroups,
		verbosity:      d.verbosity,
	}
}

func (d *Decoder) Decode(words []uint32) (Result, error) {
	counts, err := d.validate(words)
	if err != nil {
		return Result{}, err
	}

	clusterer := d.NewClusterer()
	clusterer.result = Result{
		Events:   make([]RawEvent, 0, counts.hits),
		Clusters: make([]ClusteredEvent, 0, counts.modules),
		Triggers: make([]uint64, 0, counts.triggers),
	}
	for _, word := range words {
		clusterer.Feed(word)
	}
	result := clusterer.Finish()

	if d.verbosity > 0 {
		message := fmt.Sprintf("Decoded %d words: %d events, %d clusters, %d triggers",
			len(words), len(result.Events), len(result.Clusters), len(result.Triggers))
		logger.Info(message, "decoder")
	}
	if d.verbosity > 0 && result.Stats.Malformed > 0 {
		message := fmt.Sprintf("Ignored %d out of order words", result.Stats.Malformed)
		logger.Info(message, "decoder")
	}
	return result, nil
}

func (d *Decoder) DecodeBytes(payload []byte) (Result, error) {
	return d.Decode(BytesToWords(payload))
}

// Upper bounds of the records a stream can produce
type streamCounts struct {
	hits     int
	modules  int
	triggers int
}

// validate checks every module and channel seen inside a window against the
// geometry, so that a calibration mismatch is reported before decoding.
func (d *Decoder) validate(words []uint32) (streamCounts, error) {
	var counts streamCounts
	open := false
	module := -1
	for _, raw := range words {
		word := Classify(raw)
		switch word.Kind {
		case HEADER_WORD:
			if !open {
				module = -1
			}
			open = true
			if word.Trigger {
				counts.triggers++
			}
		case MODULE_START_WORD:
			if !open {
				continue
			}
			if !d.geometry.Has(word.Module) {
				return counts, moduleConfigError(int(word.Module), "module not present in the geometry")
			}
			module = int(word.Module)
			counts.modules++
		case HIT_WORD:
			if !open {
				continue
			}
			if word.Channel >= N_CHANNELS {
				return counts, &ConfigurationError{Module: module, Channel: int(word.Channel), Reason: "channel outside the wire and grid range"}
			}
			counts.hits++
		case WINDOW_END_WORD:
			open = false
		}
	}
	return counts, nil
}
