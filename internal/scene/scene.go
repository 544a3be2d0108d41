// Package scene produces concrete scene configurations from a layout catalog
// and a single deterministic RNG stream.
package scene

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/xkilldash9x/deskgen/internal/layout"
)

// State is one concrete scene configuration. It is created fresh per
// generation round, never mutated, and consumed read-only downstream.
type State struct {
	// DesktopIcons and TaskbarIcons hold selected icon IDs in authored
	// placement order.
	DesktopIcons []string
	TaskbarIcons []string
	Timestamp    time.Time
	// LoadingVisible marks whether the loading indicator is rendered.
	LoadingVisible bool
	// Lineage records the RNG provenance of this state, for audit logs.
	Lineage string
}

// ClockText formats the scene timestamp the way the taskbar clock renders it.
func (s *State) ClockText() string {
	return s.Timestamp.Format("3:04 PM") + "\n" + s.Timestamp.Format("1/2/2006")
}

// DisjointKey is the provenance attribute used to partition held-out test
// data: the ISO date of the scene clock.
func (s *State) DisjointKey() string {
	return s.Timestamp.Format("2006-01-02")
}

// HasDesktopIcon reports whether the scene includes the given desktop icon.
func (s *State) HasDesktopIcon(id string) bool {
	for _, v := range s.DesktopIcons {
		if v == id {
			return true
		}
	}
	return false
}

// Params are the sampling knobs, resolved from configuration.
type Params struct {
	DesktopMinFrac     float64
	TaskbarMinFrac     float64
	LoadingProbability float64
	// Start and End bound the sampled scene clock. End must be after Start.
	Start time.Time
	End   time.Time
}

// Sample draws one scene state. It is deterministic given the RNG's consumed
// call sequence; the draw order below is part of that contract and must not
// be reordered:
//
//	desktop subset, taskbar subset, loading flag, timestamp.
func Sample(rng *rand.Rand, cat *layout.Catalog, p Params, round int) (*State, error) {
	desktop := varyNSubset(rng,
		cat.RequiredIcons(layout.ZoneDesktop),
		cat.OptionalIcons(layout.ZoneDesktop),
		p.DesktopMinFrac)
	taskbar := varyNSubset(rng,
		cat.RequiredIcons(layout.ZoneTaskbar),
		cat.OptionalIcons(layout.ZoneTaskbar),
		p.TaskbarMinFrac)

	loading := rng.Float64() < p.LoadingProbability

	span := p.End.Sub(p.Start)
	if span <= 0 {
		return nil, fmt.Errorf("scene datetime range is empty (%s .. %s)", p.Start, p.End)
	}
	ts := p.Start.Add(time.Duration(rng.Int63n(int64(span))))

	return &State{
		DesktopIcons:   desktop,
		TaskbarIcons:   taskbar,
		Timestamp:      ts,
		LoadingVisible: loading,
		Lineage:        fmt.Sprintf("round=%d", round),
	}, nil
}

// VaryN draws the constrained subset size: k uniform in [ceil(m*minFrac), m]
// inclusive. An empty pool trivially yields k=0.
func VaryN(rng *rand.Rand, m int, minFrac float64) int {
	if m == 0 {
		return 0
	}
	lo := int(math.Ceil(float64(m) * minFrac))
	if lo > m {
		lo = m
	}
	return lo + rng.Intn(m-lo+1)
}

// varyNSubset selects required ∪ (random k-subset of optional), without
// replacement, returned in authored order.
func varyNSubset(rng *rand.Rand, required, optional []layout.Element, minFrac float64) []string {
	k := VaryN(rng, len(optional), minFrac)

	chosen := make(map[int]bool, k)
	for _, idx := range rng.Perm(len(optional))[:k] {
		chosen[idx] = true
	}

	out := make([]string, 0, len(required)+k)
	for _, el := range required {
		out = append(out, el.ID)
	}
	for i, el := range optional {
		if chosen[i] {
			out = append(out, el.ID)
		}
	}
	return out
}
