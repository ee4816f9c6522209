package decoder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CalibrationProfile is the geometry and timing calibration of one
// measurement. It is loaded once and shared read-only by every decode pass.
type CalibrationProfile struct {
	Modules        []ModuleGeometry    `yaml:"modules"`
	Energies       []EnergyCalibration `yaml:"energies"`
	SourceToSample float64             `yaml:"source_to_sample"`
}

func (p CalibrationProfile) Energy(name string) (EnergyCalibration, bool) {
	for _, e := range p.Energies {
		if e.Name == name {
			return e, true
		}
	}
	return EnergyCalibration{}, false
}

// MarkILL sets the family of every module of the given ILL vessels. Vessel
// i holds buses 3i, 3i+1 and 3i+2.
func (p *CalibrationProfile) MarkILL(vessels []int) {
	for i := range p.Modules {
		vessel := int(p.Modules[i].Module) / BUSES_PER_VESSEL
		for _, v := range vessels {
			if v == vessel {
				p.Modules[i].Family = ILL
			}
		}
	}
}

func LoadCalibrationFile(filename string) (CalibrationProfile, error) {
	profile := CalibrationProfile{SourceToSample: DEFAULT_SOURCE_TO_SAMPLE}

	data, err := os.ReadFile(filename)
	if err != nil {
		return profile, &ErrOpenFile{Filename: filename, Err: err}
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("error parsing calibration file %s: %w", filename, err)
	}
	if profile.SourceToSample <= 0 {
		return profile, configError(fmt.Sprintf("source to sample distance must be positive, got %g", profile.SourceToSample))
	}
	return profile, nil
}
