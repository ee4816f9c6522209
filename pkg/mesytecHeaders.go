package decoder

/* ---------- Word masks ---------- */
const TYPE_MASK uint32 = 0xC0000000
const DATA_MASK uint32 = 0xF0000000

const CHANNEL_MASK uint32 = 0x00FFF000
const MODULE_MASK uint32 = 0x0F000000
const ADC_MASK uint32 = 0x00000FFF
const TIMESTAMP_MASK uint32 = 0x3FFFFFFF
const EXTS_MASK uint32 = 0x0000FFFF
const TRIGGER_MASK uint32 = 0xCF000000

/* ---------- Word patterns ---------- */
const HEADER uint32 = 0x40000000
const END_OF_EVENT uint32 = 0xC0000000

const DATA_MODULE_START uint32 = 0x30000000
const DATA_EVENT uint32 = 0x10000000
const DATA_EXTS uint32 = 0x20000000

const TRIGGER uint32 = 0x41000000

/* ---------- Shifts ---------- */
const CHANNEL_SHIFT = 12
const MODULE_SHIFT = 24
const EXTS_SHIFT = 30

/* ---------- Channel layout ---------- */
const N_WIRES = 80
const N_GRIDS = 40
const FIRST_GRID = N_WIRES
const N_CHANNELS = N_WIRES + N_GRIDS

// Native timer tick of the read-out, in seconds
const TICK_PERIOD = 62.5e-9

type WordKind uint8

const (
	UNRECOGNIZED WordKind = iota
	HEADER_WORD
	MODULE_START_WORD
	HIT_WORD
	EXTENDED_TIMESTAMP_WORD
	WINDOW_END_WORD
)

func (k WordKind) String() string {
	switch k {
	case HEADER_WORD:
		return "Header"
	case MODULE_START_WORD:
		return "ModuleStart"
	case HIT_WORD:
		return "Hit"
	case EXTENDED_TIMESTAMP_WORD:
		return "ExtendedTimestamp"
	case WINDOW_END_WORD:
		return "WindowEnd"
	default:
		return "Unrecognized"
	}
}

// Word is a classified 32-bit read-out word. Only the fields belonging to
// Kind are meaningful.
type Word struct {
	Kind         WordKind
	Trigger      bool
	Module       uint8
	Channel      uint16
	Amplitude    uint16
	ExtendedBits uint16
	LowTimestamp uint32
}

func Classify(word uint32) Word {
	switch {
	case word&TYPE_MASK == HEADER:
		return Word{Kind: HEADER_WORD, Trigger: word&TRIGGER_MASK == TRIGGER}
	case word&DATA_MASK == DATA_MODULE_START:
		return Word{Kind: MODULE_START_WORD, Module: uint8((word & MODULE_MASK) >> MODULE_SHIFT)}
	case word&DATA_MASK == DATA_EVENT:
		return Word{
			Kind:      HIT_WORD,
			Channel:   uint16((word & CHANNEL_MASK) >> CHANNEL_SHIFT),
			Amplitude: uint16(word & ADC_MASK),
		}
	case word&DATA_MASK == DATA_EXTS:
		return Word{Kind: EXTENDED_TIMESTAMP_WORD, ExtendedBits: uint16(word & EXTS_MASK)}
	case word&TYPE_MASK == END_OF_EVENT:
		return Word{Kind: WINDOW_END_WORD, LowTimestamp: word & TIMESTAMP_MASK}
	}
	return Word{Kind: UNRECOGNIZED}
}

// ReconstructTimestamp joins the extended timestamp bits with the 30-bit
// timestamp of the end-of-event word. Without extended bits only the low
// part is used.
func ReconstructTimestamp(low uint32, high uint16, hasHigh bool) uint64 {
	low64 := uint64(low & TIMESTAMP_MASK)
	if !hasHigh {
		return low64
	}
	return uint64(high)<<EXTS_SHIFT | low64
}

func isWire(channel uint16) bool {
	return channel < N_WIRES
}

// Odd and even wire channels are swapped in the read-out cabling
func flipWire(channel uint16) uint16 {
	return channel ^ 1
}
