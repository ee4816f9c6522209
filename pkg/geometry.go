package decoder

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/spatial/r3"
)

type DetectorFamily int

const (
	ESS DetectorFamily = iota
	ILL
)

var detectorFamilyStrings = []string{
	"ESS",
	"ILL",
}

func (f DetectorFamily) String() string {
	if f < ESS || f > ILL {
		return "UNKNOWN"
	}
	return detectorFamilyStrings[f]
}

func ParseDetectorFamily(s string) (DetectorFamily, error) {
	for i, v := range detectorFamilyStrings {
		if strings.EqualFold(v, s) {
			return DetectorFamily(i), nil
		}
	}
	return ESS, fmt.Errorf("invalid detector family: %s", s)
}

func (f DetectorFamily) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *DetectorFamily) UnmarshalText(text []byte) error {
	family, err := ParseDetectorFamily(string(text))
	if err != nil {
		return err
	}
	*f = family
	return nil
}

// ModuleGeometry places one bus in the instrument frame. Theta is given in
// degrees, Offset in meters.
type ModuleGeometry struct {
	Module uint8          `yaml:"module" json:"module"`
	Family DetectorFamily `yaml:"family" json:"family"`
	Theta  float64        `yaml:"theta" json:"theta"`
	Offset r3.Vec         `yaml:"offset" json:"offset"`
}

// Regular grid of one vessel, in millimeters. Sub-wires run along x, layers
// along y and grids along z. Buses of the same vessel are stacked along y,
// four layers each.
type vesselLayout struct {
	wirePitch  float64
	layerPitch float64
	gridPitch  float64
	// grid channel placed at the origin
	gridBase uint16
	origin   r3.Vec
	// ESS coordinate tables count the wires of a layer from the top
	wiresFromTop bool
}

var vesselLayouts = map[DetectorFamily]vesselLayout{
	ILL: {
		wirePitch:  23.5,
		layerPitch: 10,
		gridPitch:  23.5,
		origin:     r3.Vec{X: 46.514, Y: 37.912, Z: 37.95},
	},
	// Placeholder pitches and origin until the ESS coordinate tables are available
	ESS: {
		wirePitch:    22.5,
		layerPitch:   22.5,
		gridPitch:    22.5,
		gridBase:     FIRST_GRID,
		wiresFromTop: true,
	},
}

const WIRES_PER_LAYER = 20
const LAYERS_PER_BUS = 4
const BUSES_PER_VESSEL = 3

func (l vesselLayout) local(module uint8, wire uint16, grid uint16) r3.Vec {
	layer := float64(wire / WIRES_PER_LAYER)
	subWire := wire % WIRES_PER_LAYER
	if l.wiresFromTop {
		subWire = WIRES_PER_LAYER - 1 - subWire
	}
	busDepth := float64(module%BUSES_PER_VESSEL) * LAYERS_PER_BUS * l.layerPitch
	return r3.Vec{
		X: float64(subWire)*l.wirePitch + l.origin.X,
		Y: layer*l.layerPitch + busDepth + l.origin.Y,
		Z: float64(grid-l.gridBase)*l.gridPitch + l.origin.Z,
	}
}

type moduleTable struct {
	geometry ModuleGeometry
	coords   [N_GRIDS][N_WIRES]r3.Vec
}

// Geometry maps (module, wire, grid) to instrument coordinates in meters.
// It is built once and only read afterwards.
type Geometry struct {
	modules map[uint8]*moduleTable
}

func NewGeometry(modules []ModuleGeometry) (*Geometry, error) {
	geometry := &Geometry{modules: make(map[uint8]*moduleTable, len(modules))}
	for _, m := range modules {
		if uint32(m.Module) > MODULE_MASK>>MODULE_SHIFT {
			return nil, moduleConfigError(int(m.Module), "module id does not fit in the bus field")
		}
		if _, ok := geometry.modules[m.Module]; ok {
			return nil, moduleConfigError(int(m.Module), "module defined twice")
		}
		layout, ok := vesselLayouts[m.Family]
		if !ok {
			return nil, moduleConfigError(int(m.Module), fmt.Sprintf("unknown detector family %d", m.Family))
		}
		geometry.modules[m.Module] = buildModuleTable(m, layout)
	}
	return geometry, nil
}

func buildModuleTable(m ModuleGeometry, layout vesselLayout) *moduleTable {
	table := &moduleTable{geometry: m}
	rotation := r3.NewRotation(m.Theta*math.Pi/180, r3.Vec{Y: 1})
	for g := uint16(0); g < N_GRIDS; g++ {
		for w := uint16(0); w < N_WIRES; w++ {
			position := r3.Scale(1e-3, layout.local(m.Module, w, g+FIRST_GRID))
			table.coords[g][w] = r3.Add(rotation.Rotate(position), m.Offset)
		}
	}
	return table
}

func (g *Geometry) Resolve(module uint8, wire uint16, grid uint16) (r3.Vec, bool) {
	table, ok := g.modules[module]
	if !ok || wire >= N_WIRES || grid < FIRST_GRID || grid >= N_CHANNELS {
		return r3.Vec{}, false
	}
	return table.coords[grid-FIRST_GRID][wire], true
}

func (g *Geometry) Has(module uint8) bool {
	_, ok := g.modules[module]
	return ok
}

func (g *Geometry) Module(module uint8) (ModuleGeometry, bool) {
	table, ok := g.modules[module]
	if !ok {
		return ModuleGeometry{}, false
	}
	return table.geometry, true
}

// Modules returns the configured module ids in ascending order
func (g *Geometry) Modules() []uint8 {
	keys := maps.Keys(g.modules)
	slices.Sort(keys)
	return keys
}

func Distance(coordinate r3.Vec) float64 {
	return r3.Norm(coordinate)
}
