package decoder

import "gonum.org/v1/gonum/spatial/r3"

// RawEvent is a single wire or grid hit. Wire channels are stored after the
// odd/even swap correction.
type RawEvent struct {
	Module    uint8
	Timestamp uint64
	Channel   uint16
	ADC       uint16
}

// ChannelMax is the channel holding the largest amplitude in one category
// of a cluster. Set is false when the category saw no qualifying hit.
type ChannelMax struct {
	Channel uint16
	Set     bool
}

type ClusteredEvent struct {
	Module           uint8
	Timestamp        uint64
	ToF              int64
	Wire             ChannelMax
	Grid             ChannelMax
	WireADC          uint32
	GridADC          uint32
	WireMultiplicity uint16
	GridMultiplicity uint16
	Coordinate       *r3.Vec
	Distance         *float64
	EnergyTransfer   *float64
}

// Complete reports whether both a wire and a grid channel were observed
func (c ClusteredEvent) Complete() bool {
	return c.Wire.Set && c.Grid.Set
}

type Stats struct {
	Words             int
	Unrecognized      int
	Malformed         int
	RepeatedHeaders   int
	Windows           int
	TriggerWindows    int
	TruncatedWindows  int
	InvalidKinematics int
}

type Result struct {
	Events   []RawEvent
	Clusters []ClusteredEvent
	Triggers []uint64
	Stats    Stats
}
