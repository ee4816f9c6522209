package decoder

import "gonum.org/v1/gonum/spatial/r3"

func headerWord(trigger bool) uint32 {
	if trigger {
		return HEADER | 0x01000000
	}
	return HEADER
}

func moduleStartWord(module uint8) uint32 {
	return DATA_MODULE_START | uint32(module)<<MODULE_SHIFT
}

func hitWord(channel uint16, amplitude uint16) uint32 {
	return DATA_EVENT | uint32(channel)<<CHANNEL_SHIFT | uint32(amplitude)
}

func extendedWord(high uint16) uint32 {
	return DATA_EXTS | uint32(high)
}

func windowEndWord(low uint32) uint32 {
	return END_OF_EVENT | low
}

// illProfile places every module at the origin without rotation
func illProfile(modules ...uint8) CalibrationProfile {
	profile := CalibrationProfile{SourceToSample: DEFAULT_SOURCE_TO_SAMPLE}
	for _, m := range modules {
		profile.Modules = append(profile.Modules, ModuleGeometry{Module: m, Family: ILL, Offset: r3.Vec{}})
	}
	return profile
}

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.infos = append(l.infos, module+": "+message)
}

func (l *recordingLogger) Error(message string) {
	l.errors = append(l.errors, message)
}
