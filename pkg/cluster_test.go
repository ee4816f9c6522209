package decoder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var ignoreLocation = cmpopts.IgnoreFields(ClusteredEvent{}, "Coordinate", "Distance", "EnergyTransfer")

func decodeWords(t *testing.T, profile CalibrationProfile, options Options, words ...uint32) Result {
	t.Helper()
	d, err := NewDecoder(profile, options)
	require.NoError(t, err)
	result, err := d.Decode(words)
	require.NoError(t, err)
	return result
}

func TestClusterSingleWindow(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{},
		headerWord(true),
		moduleStartWord(0),
		hitWord(4, 50),
		hitWord(5, 80),
		hitWord(90, 200),
		extendedWord(0x1),
		windowEndWord(100),
	)
	timestamp := uint64(1)<<30 | 100

	wantClusters := []ClusteredEvent{{
		Module:           0,
		Timestamp:        timestamp,
		ToF:              0,
		Wire:             ChannelMax{Channel: 4, Set: true},
		Grid:             ChannelMax{Channel: 90, Set: true},
		WireADC:          130,
		GridADC:          200,
		WireMultiplicity: 2,
		GridMultiplicity: 1,
	}}
	if diff := cmp.Diff(wantClusters, result.Clusters, ignoreLocation); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}

	wantEvents := []RawEvent{
		{Module: 0, Timestamp: timestamp, Channel: 5, ADC: 50},
		{Module: 0, Timestamp: timestamp, Channel: 4, ADC: 80},
		{Module: 0, Timestamp: timestamp, Channel: 90, ADC: 200},
	}
	if diff := cmp.Diff(wantEvents, result.Events); diff != "" {
		t.Errorf("raw events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []uint64{timestamp}, result.Triggers)

	cluster := result.Clusters[0]
	require.NotNil(t, cluster.Coordinate)
	assertVecInDelta(t, r3.Vec{X: 0.140514, Y: 0.037912, Z: 2.15295}, *cluster.Coordinate)
	require.NotNil(t, cluster.Distance)
	assert.InDelta(t, Distance(*cluster.Coordinate), *cluster.Distance, 1e-15)
	assert.Nil(t, cluster.EnergyTransfer, "no energy setting configured")

	assert.Equal(t, Stats{Words: 7, Windows: 1, TriggerWindows: 1}, result.Stats)
}

func TestClusterMergeGroup(t *testing.T) {
	words := []uint32{
		headerWord(false),
		moduleStartWord(0),
		hitWord(10, 100),
		moduleStartWord(1),
		hitWord(85, 60),
		hitWord(20, 300),
		windowEndWord(5),
	}

	t.Run("merged", func(t *testing.T) {
		result := decodeWords(t, illProfile(0, 1), Options{MergeGroups: [][]uint8{{0, 1}}}, words...)
		require.Len(t, result.Clusters, 1)

		cluster := result.Clusters[0]
		assert.Equal(t, uint8(1), cluster.Module, "bus of the last wire hit")
		assert.Equal(t, ChannelMax{Channel: 21, Set: true}, cluster.Wire)
		assert.Equal(t, ChannelMax{Channel: 85, Set: true}, cluster.Grid)
		assert.Equal(t, uint16(2), cluster.WireMultiplicity)
		assert.Equal(t, uint16(1), cluster.GridMultiplicity)
		assert.Equal(t, uint32(400), cluster.WireADC)
		assert.NotNil(t, cluster.Coordinate)

		require.Len(t, result.Events, 3)
		assert.Equal(t, uint8(0), result.Events[0].Module)
		assert.Equal(t, uint8(1), result.Events[1].Module)
		assert.Equal(t, uint8(1), result.Events[2].Module)
	})

	t.Run("merged, strongest wire on the first bus", func(t *testing.T) {
		result := decodeWords(t, illProfile(0, 1), Options{MergeGroups: [][]uint8{{0, 1}}},
			headerWord(false),
			moduleStartWord(0),
			hitWord(4, 300),
			moduleStartWord(1),
			hitWord(6, 100),
			hitWord(90, 50),
			windowEndWord(5),
		)
		require.Len(t, result.Clusters, 1)

		cluster := result.Clusters[0]
		assert.Equal(t, uint8(1), cluster.Module, "bus of the last wire hit")
		assert.Equal(t, ChannelMax{Channel: 5, Set: true}, cluster.Wire)
		require.NotNil(t, cluster.Coordinate)
		// sub-wire 5 of the first layer, one bus deep
		assertVecInDelta(t, r3.Vec{X: 0.164014, Y: 0.077912, Z: 2.15295}, *cluster.Coordinate)
	})

	t.Run("separate", func(t *testing.T) {
		result := decodeWords(t, illProfile(0, 1), Options{}, words...)
		require.Len(t, result.Clusters, 2)

		first, second := result.Clusters[0], result.Clusters[1]
		assert.Equal(t, uint8(0), first.Module)
		assert.Equal(t, ChannelMax{Channel: 11, Set: true}, first.Wire)
		assert.False(t, first.Grid.Set)
		assert.Nil(t, first.Coordinate, "half-formed cluster")
		assert.Nil(t, first.Distance)

		assert.Equal(t, uint8(1), second.Module)
		assert.Equal(t, ChannelMax{Channel: 21, Set: true}, second.Wire)
		assert.Equal(t, ChannelMax{Channel: 85, Set: true}, second.Grid)
		assert.NotNil(t, second.Coordinate)
		assert.Equal(t, first.Timestamp, second.Timestamp)
	})
}

func TestClusterMalformedWords(t *testing.T) {
	tests := []struct {
		name          string
		words         []uint32
		wantEvents    int
		wantMalformed int
	}{
		{"hit before header", []uint32{hitWord(3, 10)}, 0, 1},
		{"module start before header", []uint32{moduleStartWord(0), hitWord(3, 10)}, 0, 2},
		{"extended timestamp before header", []uint32{extendedWord(3)}, 0, 1},
		{"window end before header", []uint32{windowEndWord(3)}, 0, 1},
		{"hit before module start", []uint32{headerWord(false), hitWord(3, 10), windowEndWord(3)}, 0, 1},
		{"second window end", []uint32{headerWord(false), moduleStartWord(0), hitWord(3, 10), windowEndWord(3), windowEndWord(4)}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decodeWords(t, illProfile(0), Options{}, tt.words...)
			assert.Len(t, result.Events, tt.wantEvents)
			assert.Equal(t, tt.wantMalformed, result.Stats.Malformed)
		})
	}
}

func TestClusterHitWithoutHeaderProducesNothing(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{}, hitWord(3, 10))
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Clusters)
	assert.Empty(t, result.Triggers)
}

func TestClusterUnrecognizedWords(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{},
		0x00000000,
		headerWord(false),
		moduleStartWord(0),
		0x0A000000,
		hitWord(3, 10),
		windowEndWord(3),
	)
	assert.Equal(t, 2, result.Stats.Unrecognized)
	assert.Len(t, result.Events, 1)
	assert.Len(t, result.Clusters, 1)
}

func TestClusterRepeatedHeader(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{},
		headerWord(false),
		moduleStartWord(0),
		hitWord(3, 10),
		headerWord(true),
		hitWord(84, 20),
		windowEndWord(7),
	)
	require.Len(t, result.Clusters, 1)
	assert.Equal(t, uint16(1), result.Clusters[0].WireMultiplicity)
	assert.Equal(t, uint16(1), result.Clusters[0].GridMultiplicity)
	assert.Equal(t, []uint64{7}, result.Triggers, "the later header sets the trigger flag")
	assert.Equal(t, int64(0), result.Clusters[0].ToF)
	assert.Equal(t, 1, result.Stats.RepeatedHeaders)
}

func TestClusterTieBreak(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{},
		headerWord(false),
		moduleStartWord(0),
		hitWord(2, 50),
		hitWord(6, 50),
		hitWord(82, 30),
		hitWord(83, 30),
		windowEndWord(1),
	)
	require.Len(t, result.Clusters, 1)
	assert.Equal(t, ChannelMax{Channel: 3, Set: true}, result.Clusters[0].Wire, "first wire with the maximum")
	assert.Equal(t, ChannelMax{Channel: 82, Set: true}, result.Clusters[0].Grid, "first grid with the maximum")
}

func TestClusterZeroAmplitude(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{},
		headerWord(false),
		moduleStartWord(0),
		hitWord(7, 0),
		hitWord(81, 5),
		windowEndWord(1),
	)
	require.Len(t, result.Clusters, 1)
	cluster := result.Clusters[0]
	assert.False(t, cluster.Wire.Set)
	assert.Equal(t, uint16(1), cluster.WireMultiplicity)
	assert.True(t, cluster.Grid.Set)
	assert.Nil(t, cluster.Coordinate)
	assert.Len(t, result.Events, 2)
}

func TestClusterTimeOfFlightBaseline(t *testing.T) {
	window := func(trigger bool, low uint32) []uint32 {
		return []uint32{
			headerWord(trigger),
			moduleStartWord(0),
			hitWord(1, 10),
			hitWord(100, 10),
			windowEndWord(low),
		}
	}
	var words []uint32
	words = append(words, window(false, 300)...)
	words = append(words, window(true, 1000)...)
	words = append(words, window(false, 1500)...)
	words = append(words, window(true, 4000)...)
	words = append(words, window(false, 4100)...)

	result := decodeWords(t, illProfile(0), Options{}, words...)
	require.Len(t, result.Clusters, 5)

	tofs := make([]int64, len(result.Clusters))
	for i, cluster := range result.Clusters {
		tofs[i] = cluster.ToF
	}
	assert.Equal(t, []int64{300, 0, 500, 0, 100}, tofs)
	assert.Equal(t, []uint64{1000, 4000}, result.Triggers)
}

func TestClusterExtendedTimestampIsPerWindow(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{},
		headerWord(false),
		extendedWord(2),
		moduleStartWord(0),
		hitWord(1, 10),
		windowEndWord(10),
		headerWord(false),
		moduleStartWord(0),
		hitWord(1, 10),
		windowEndWord(20),
	)
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, uint64(2)<<30|10, result.Clusters[0].Timestamp)
	assert.Equal(t, uint64(20), result.Clusters[1].Timestamp)
}

func TestClusterTruncatedWindow(t *testing.T) {
	result := decodeWords(t, illProfile(0), Options{},
		headerWord(false),
		moduleStartWord(0),
		hitWord(1, 10),
		windowEndWord(10),
		headerWord(false),
		moduleStartWord(0),
		hitWord(2, 10),
	)
	assert.Len(t, result.Clusters, 1)
	require.Len(t, result.Events, 2)
	assert.Equal(t, uint64(10), result.Events[0].Timestamp)
	assert.Equal(t, uint64(0), result.Events[1].Timestamp)
	assert.Equal(t, 1, result.Stats.TruncatedWindows)
}

func TestClusterKinematics(t *testing.T) {
	cal := EnergyCalibration{Name: "5meV", IncidentEnergy: 5}
	profile := illProfile(0)
	profile.Energies = []EnergyCalibration{cal}

	t.Run("valid flight time", func(t *testing.T) {
		result := decodeWords(t, profile, Options{EnergySetting: "5meV"},
			headerWord(true),
			windowEndWord(0),
			headerWord(false),
			moduleStartWord(0),
			hitWord(1, 10),
			hitWord(100, 10),
			windowEndWord(378879),
		)
		require.Len(t, result.Clusters, 1)
		cluster := result.Clusters[0]
		require.NotNil(t, cluster.Coordinate)
		require.NotNil(t, cluster.Distance)
		require.NotNil(t, cluster.EnergyTransfer)

		want, _ := EnergyTransfer(cal, DEFAULT_SOURCE_TO_SAMPLE, 378879, *cluster.Distance)
		assert.InDelta(t, want, *cluster.EnergyTransfer, 1e-12)
		assert.Zero(t, result.Stats.InvalidKinematics)
	})

	t.Run("non-positive flight time", func(t *testing.T) {
		result := decodeWords(t, profile, Options{EnergySetting: "5meV"},
			headerWord(false),
			moduleStartWord(0),
			hitWord(1, 10),
			hitWord(100, 10),
			windowEndWord(10),
		)
		require.Len(t, result.Clusters, 1)
		cluster := result.Clusters[0]
		assert.NotNil(t, cluster.Coordinate)
		assert.Nil(t, cluster.Distance)
		assert.Nil(t, cluster.EnergyTransfer)
		assert.Equal(t, 1, result.Stats.InvalidKinematics)
	})
}

func TestClustererIncrementalFeed(t *testing.T) {
	d, err := NewDecoder(illProfile(0), Options{})
	require.NoError(t, err)

	words := []uint32{headerWord(false), moduleStartWord(0), hitWord(1, 10), hitWord(100, 10), windowEndWord(10)}
	clusterer := d.NewClusterer()
	for _, word := range words {
		clusterer.Feed(word)
	}
	incremental := clusterer.Finish()

	batch, err := d.Decode(words)
	require.NoError(t, err)
	if diff := cmp.Diff(batch.Clusters, incremental.Clusters); diff != "" {
		t.Errorf("incremental feed mismatch (-batch +incremental):\n%s", diff)
	}

	assert.Empty(t, clusterer.Finish().Clusters, "Finish hands over the result")
}

func TestClusterVerboseLogging(t *testing.T) {
	log := &recordingLogger{}
	SetLogger(log)
	defer SetLogger(nil)

	decodeWords(t, illProfile(0), Options{Verbosity: 3}, hitWord(1, 10), headerWord(false), moduleStartWord(0), windowEndWord(1))
	assert.Contains(t, log.infos, "cluster: ignoring out of order Hit word")
	assert.Contains(t, log.infos, "cluster: window 1 closed at 1, 1 clusters, 0 hits")
}
