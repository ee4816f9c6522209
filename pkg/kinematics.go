package decoder

import "math"

const NEUTRON_MASS = 1.674927351e-27 // kg
const MEV_TO_J = 1.60218e-19 * 0.001
const J_TO_MEV = 6.24150913e18 * 1000

// Moderator to sample flight path, in meters
const DEFAULT_SOURCE_TO_SAMPLE = 20.01

// EnergyCalibration holds the constants of one incident-energy setting.
// Energies are in meV, times in microseconds.
type EnergyCalibration struct {
	Name           string  `yaml:"name" json:"name" db:"Name"`
	IncidentEnergy float64 `yaml:"ei" json:"ei" db:"Ei"`
	T0             float64 `yaml:"t0" json:"t0" db:"T0"`
	TimeOffset     float64 `yaml:"time_offset" json:"time_offset" db:"TimeOffset"`
	FrameShift     float64 `yaml:"frame_shift" json:"frame_shift" db:"FrameShift"`
}

// EnergyTransfer returns the energy transfer (meV) and the sample to
// detector flight time (s) for a time-of-flight in read-out ticks and a
// sample to detector distance in meters. Results with a non-positive flight
// time are meaningless and must be discarded by the caller.
func EnergyTransfer(cal EnergyCalibration, sourceToSample float64, tof int64, distance float64) (float64, float64) {
	eiJoule := cal.IncidentEnergy * MEV_TO_J
	vi := math.Sqrt(2 * eiJoule / NEUTRON_MASS)
	t1 := sourceToSample/vi + cal.T0*1e-6

	tofReal := float64(tof)*TICK_PERIOD + (cal.TimeOffset+cal.FrameShift)*1e-6
	t2 := tofReal - t1

	efJoule := NEUTRON_MASS / 2 * (distance / t2) * (distance / t2)
	ef := efJoule * J_TO_MEV
	return cal.IncidentEnergy - ef, t2
}
