package decoder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const calibrationYAML = `
source_to_sample: 20.5
modules:
  - module: 0
    family: ill
    theta: 138.5
    offset: {x: 1.0, y: -0.5, z: 2.25}
  - module: 3
    family: ESS
    theta: -12
energies:
  - name: 3meV
    ei: 3.0
    t0: 12.5
    time_offset: 3000
    frame_shift: 0
  - name: 8meV
    ei: 8.0
    t0: 4
    time_offset: 1200
    frame_shift: 71428.5
`

func writeTempFile(t *testing.T, name string, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestLoadCalibrationFile(t *testing.T) {
	profile, err := LoadCalibrationFile(writeTempFile(t, "calibration.yaml", calibrationYAML))
	require.NoError(t, err)

	assert.Equal(t, 20.5, profile.SourceToSample)
	assert.Equal(t, []ModuleGeometry{
		{Module: 0, Family: ILL, Theta: 138.5, Offset: r3.Vec{X: 1, Y: -0.5, Z: 2.25}},
		{Module: 3, Family: ESS, Theta: -12},
	}, profile.Modules)

	energy, ok := profile.Energy("8meV")
	require.True(t, ok)
	assert.Equal(t, EnergyCalibration{Name: "8meV", IncidentEnergy: 8, T0: 4, TimeOffset: 1200, FrameShift: 71428.5}, energy)

	_, ok = profile.Energy("2meV")
	assert.False(t, ok)
}

func TestLoadCalibrationFileDefaults(t *testing.T) {
	profile, err := LoadCalibrationFile(writeTempFile(t, "calibration.yaml", "modules:\n  - module: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_SOURCE_TO_SAMPLE, profile.SourceToSample)
	assert.Equal(t, ESS, profile.Modules[0].Family)
}

func TestLoadCalibrationFileErrors(t *testing.T) {
	_, err := LoadCalibrationFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)

	_, err = LoadCalibrationFile(writeTempFile(t, "bad.yaml", "modules:\n  - module: 1\n    family: CSPEC\n"))
	assert.Error(t, err)

	_, err = LoadCalibrationFile(writeTempFile(t, "negative.yaml", "source_to_sample: -3\n"))
	assert.True(t, IsConfigurationError(err))
}

func TestMarkILL(t *testing.T) {
	profile := CalibrationProfile{Modules: []ModuleGeometry{
		{Module: 0}, {Module: 2}, {Module: 3}, {Module: 6}, {Module: 8},
	}}
	profile.MarkILL([]int{0, 2})

	families := make([]DetectorFamily, len(profile.Modules))
	for i, m := range profile.Modules {
		families[i] = m.Family
	}
	assert.Equal(t, []DetectorFamily{ILL, ILL, ESS, ILL, ILL}, families)
}
