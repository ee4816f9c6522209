package decoder

import (
	"encoding/json"
	"os"
)

type Configuration struct {
	FilesIn          []string `json:"files_in"`
	DirOut           string   `json:"dir_out"`
	Verbosity        int      `json:"verbosity"`
	NumWorkers       int      `json:"num_workers"`
	MergeGroups      [][]int  `json:"merge_groups"`
	ILLDetectors     []int    `json:"ill_detectors"`
	CalibrationFile  string   `json:"calibration_file"`
	EnergySetting    string   `json:"energy_setting"`
	NoDB             bool     `json:"no_db"`
	Host             string   `json:"host"`
	User             string   `json:"user"`
	Passwd           string   `json:"pass"`
	DBName           string   `json:"dbname"`
	RunNumber        int      `json:"run_number"`
	CompressionLevel int      `json:"compression_level"`
	WriteData        bool     `json:"write_data"`
	WriteEvents      bool     `json:"write_events"`
	MaxSizeMB        int      `json:"max_size_mb"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.DirOut = "."
	config.Verbosity = 0
	config.NumWorkers = 1
	config.NoDB = true
	config.Host = "localhost"
	config.User = "mgreader"
	config.Passwd = "readonly"
	config.DBName = "MULTIGRID"
	config.CompressionLevel = 9
	config.WriteData = true
	config.WriteEvents = true
	config.MaxSizeMB = 0

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

// AllMergeGroups returns the explicit merge groups followed by one group per
// ILL detector (buses 3i, 3i+1, 3i+2).
func (c Configuration) AllMergeGroups() [][]uint8 {
	groups := make([][]uint8, 0, len(c.MergeGroups)+len(c.ILLDetectors))
	for _, group := range c.MergeGroups {
		modules := make([]uint8, len(group))
		for i, module := range group {
			modules[i] = uint8(module)
		}
		groups = append(groups, modules)
	}
	for _, detector := range c.ILLDetectors {
		first := uint8(detector * BUSES_PER_VESSEL)
		groups = append(groups, []uint8{first, first + 1, first + 2})
	}
	return groups
}

func (c Configuration) DecoderOptions() Options {
	return Options{
		MergeGroups:   c.AllMergeGroups(),
		EnergySetting: c.EnergySetting,
		Verbosity:     c.Verbosity,
	}
}
