package decoder

import "fmt"

type subCluster struct {
	event   ClusteredEvent
	maxWire uint16
	maxGrid uint16
}

// Clusterer groups the hits of each read-out window into one candidate
// event per active module. Words must be fed in stream order. A Clusterer
// holds the state of a single stream and must not be shared.
type Clusterer struct {
	geometry       *Geometry
	energy         *EnergyCalibration
	sourceToSample float64
	mergeGroups    map[uint8]int
	verbosity      int

	open        bool
	trigger     bool
	module      uint8
	previous    uint8
	hasPrevious bool
	extended    uint16
	hasExtended bool
	window      []subCluster
	firstEvent  int
	triggerTime uint64

	result Result
}

func (c *Clusterer) Feed(raw uint32) {
	c.result.Stats.Words++
	word := Classify(raw)
	if c.verbosity > 3 {
		message := fmt.Sprintf("word 0x%08x: %v", raw, word.Kind)
		logger.Info(message, "cluster")
	}

	switch word.Kind {
	case HEADER_WORD:
		c.openWindow(word.Trigger)
	case MODULE_START_WORD:
		c.startModule(word.Module)
	case HIT_WORD:
		c.addHit(word.Channel, word.Amplitude)
	case EXTENDED_TIMESTAMP_WORD:
		if !c.open {
			c.malformed(word)
			return
		}
		c.extended = word.ExtendedBits
		c.hasExtended = true
	case WINDOW_END_WORD:
		c.closeWindow(word.LowTimestamp)
	default:
		c.result.Stats.Unrecognized++
	}
}

// Finish returns everything decoded so far. A window still open at the end
// of the stream is dropped, its raw events keep a zero timestamp.
func (c *Clusterer) Finish() Result {
	if c.open {
		c.result.Stats.TruncatedWindows++
		if c.verbosity > 0 {
			message := fmt.Sprintf("stream ends inside a window, dropping %d clusters", len(c.window))
			logger.Info(message, "cluster")
		}
		c.resetWindow()
	}
	result := c.result
	c.result = Result{}
	return result
}

func (c *Clusterer) openWindow(trigger bool) {
	if c.open {
		// A header inside an open window only refreshes the trigger flag,
		// the window carries on until its end-of-event word.
		c.result.Stats.RepeatedHeaders++
		c.trigger = trigger
		if c.verbosity > 1 {
			logger.Info("header inside an open window", "cluster")
		}
		return
	}
	c.open = true
	c.trigger = trigger
	c.hasPrevious = false
	c.hasExtended = false
	c.firstEvent = len(c.result.Events)
}

func (c *Clusterer) startModule(module uint8) {
	if !c.open {
		c.malformed(Word{Kind: MODULE_START_WORD, Module: module})
		return
	}
	c.module = module
	if c.hasPrevious && c.merged(c.previous, module) {
		return
	}
	c.window = append(c.window, subCluster{event: ClusteredEvent{Module: module}})
	c.previous = module
	c.hasPrevious = true
}

func (c *Clusterer) merged(a uint8, b uint8) bool {
	groupA, okA := c.mergeGroups[a]
	groupB, okB := c.mergeGroups[b]
	return okA && okB && groupA == groupB
}

func (c *Clusterer) addHit(channel uint16, adc uint16) {
	if !c.open || len(c.window) == 0 {
		c.malformed(Word{Kind: HIT_WORD, Channel: channel, Amplitude: adc})
		return
	}
	sub := &c.window[len(c.window)-1]
	if isWire(channel) {
		channel = flipWire(channel)
		sub.event.WireADC += uint32(adc)
		sub.event.WireMultiplicity++
		// Merged buses share one cluster, the bus of the last wire hit
		// fixes the depth of the hit.
		sub.event.Module = c.module
		if adc > sub.maxWire {
			sub.maxWire = adc
			sub.event.Wire = ChannelMax{Channel: channel, Set: true}
		}
	} else {
		sub.event.GridADC += uint32(adc)
		sub.event.GridMultiplicity++
		if adc > sub.maxGrid {
			sub.maxGrid = adc
			sub.event.Grid = ChannelMax{Channel: channel, Set: true}
		}
	}
	c.result.Events = append(c.result.Events, RawEvent{Module: c.module, Channel: channel, ADC: adc})
}

func (c *Clusterer) closeWindow(low uint32) {
	if !c.open {
		c.malformed(Word{Kind: WINDOW_END_WORD, LowTimestamp: low})
		return
	}
	timestamp := ReconstructTimestamp(low, c.extended, c.hasExtended)
	c.result.Stats.Windows++
	if c.trigger {
		c.triggerTime = timestamp
		c.result.Triggers = append(c.result.Triggers, timestamp)
		c.result.Stats.TriggerWindows++
	}
	tof := int64(timestamp) - int64(c.triggerTime)

	events := c.result.Events[c.firstEvent:]
	for i := range events {
		events[i].Timestamp = timestamp
	}
	for _, sub := range c.window {
		event := sub.event
		event.Timestamp = timestamp
		event.ToF = tof
		c.locate(&event)
		c.result.Clusters = append(c.result.Clusters, event)
	}

	if c.verbosity > 2 {
		message := fmt.Sprintf("window %d closed at %d, %d clusters, %d hits",
			c.result.Stats.Windows, timestamp, len(c.window), len(events))
		logger.Info(message, "cluster")
	}
	c.resetWindow()
}

// locate fills coordinate, distance and energy transfer. Half-formed
// clusters are left without them.
func (c *Clusterer) locate(event *ClusteredEvent) {
	if !event.Complete() {
		return
	}
	coordinate, ok := c.geometry.Resolve(event.Module, event.Wire.Channel, event.Grid.Channel)
	if !ok {
		return
	}
	event.Coordinate = &coordinate
	distance := Distance(coordinate)
	if c.energy == nil {
		event.Distance = &distance
		return
	}
	energyTransfer, flightTime := EnergyTransfer(*c.energy, c.sourceToSample, event.ToF, distance)
	if flightTime <= 0 {
		c.result.Stats.InvalidKinematics++
		return
	}
	event.Distance = &distance
	event.EnergyTransfer = &energyTransfer
}

func (c *Clusterer) resetWindow() {
	c.open = false
	c.trigger = false
	c.hasPrevious = false
	c.hasExtended = false
	c.window = c.window[:0]
}

func (c *Clusterer) malformed(word Word) {
	c.result.Stats.Malformed++
	if c.verbosity > 1 {
		message := fmt.Sprintf("ignoring out of order %v word", word.Kind)
		logger.Info(message, "cluster")
	}
}
