package decoder

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ModuleSummary collects the per-bus counters printed after a decode pass
type ModuleSummary struct {
	Module         uint8
	RawEvents      int
	WireHits       int
	GridHits       int
	Clusters       int
	Complete       int
	SilentChannels int
	MeanToF        float64
}

// Summarize returns one summary per module, in the given order. Modules
// that saw no data are included with zero counters. A channel is silent
// when it never appears in a raw event of its module.
func Summarize(result Result, modules []uint8) []ModuleSummary {
	type accumulator struct {
		summary ModuleSummary
		seen    [N_CHANNELS]bool
		tofs    []float64
	}
	acc := make(map[uint8]*accumulator, len(modules))
	for _, m := range modules {
		acc[m] = &accumulator{summary: ModuleSummary{Module: m}}
	}

	for _, event := range result.Events {
		a, ok := acc[event.Module]
		if !ok {
			continue
		}
		a.summary.RawEvents++
		if isWire(event.Channel) {
			a.summary.WireHits++
		} else {
			a.summary.GridHits++
		}
		if event.Channel < N_CHANNELS {
			a.seen[event.Channel] = true
		}
	}
	for _, cluster := range result.Clusters {
		a, ok := acc[cluster.Module]
		if !ok {
			continue
		}
		a.summary.Clusters++
		if cluster.Complete() {
			a.summary.Complete++
		}
		a.tofs = append(a.tofs, float64(cluster.ToF))
	}

	summaries := make([]ModuleSummary, 0, len(modules))
	for _, m := range modules {
		a := acc[m]
		for _, seen := range a.seen {
			if !seen {
				a.summary.SilentChannels++
			}
		}
		a.summary.MeanToF = math.NaN()
		if len(a.tofs) > 0 {
			a.summary.MeanToF = stat.Mean(a.tofs, nil)
		}
		summaries = append(summaries, a.summary)
	}
	return summaries
}

func WriteSummary(w io.Writer, summaries []ModuleSummary, stats Stats) error {
	_, err := fmt.Fprintf(w, "words %d, windows %d (%d trigger, %d truncated), malformed %d, unrecognized %d, invalid kinematics %d\n",
		stats.Words, stats.Windows, stats.TriggerWindows, stats.TruncatedWindows,
		stats.Malformed, stats.Unrecognized, stats.InvalidKinematics)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%6s %10s %10s %10s %10s %10s %8s %14s\n",
		"module", "events", "wires", "grids", "clusters", "complete", "silent", "mean tof")
	if err != nil {
		return err
	}
	for _, s := range summaries {
		_, err = fmt.Fprintf(w, "%6d %10d %10d %10d %10d %10d %8d %14.1f\n",
			s.Module, s.RawEvents, s.WireHits, s.GridHits, s.Clusters, s.Complete, s.SilentChannels, s.MeanToF)
		if err != nil {
			return err
		}
	}
	return nil
}
