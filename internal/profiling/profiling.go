package profiling

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

// Lightweight per-frame CPU profiler, plus lifetime latency histograms for
// the hot paths that matter for streaming responsiveness: chunk generation
// (voxel.Grid.FillWith), both meshers and the quad converter, and the
// world-manager tick/dispatch/budget operations. A single slow frame shows
// up in frameTotals; a chunk mesher that is *usually* fast but occasionally
// spikes only shows up in the histogram, which survives ResetFrame.

// histogramBoundsMs are bucket upper bounds in milliseconds. The top bound
// sits near a 16ms (60Hz) frame budget, since worldmgr.Tick and the mesh
// builders are the operations most likely to blow it.
var histogramBoundsMs = []float64{0.25, 0.5, 1, 2, 4, 8, 16}

// Histogram is a lifetime latency summary for one tracked name.
type Histogram struct {
	Count   uint64
	Total   time.Duration
	Max     time.Duration
	Buckets []uint64 // len(histogramBoundsMs)+1; Buckets[i] counts samples <= histogramBoundsMs[i] ms, last bucket is the overflow
}

func newHistogram() *Histogram {
	return &Histogram{Buckets: make([]uint64, len(histogramBoundsMs)+1)}
}

func (h *Histogram) observe(d time.Duration) {
	h.Count++
	h.Total += d
	if d > h.Max {
		h.Max = d
	}
	ms := float64(d.Microseconds()) / 1000.0
	for i, bound := range histogramBoundsMs {
		if ms <= bound {
			h.Buckets[i]++
			return
		}
	}
	h.Buckets[len(h.Buckets)-1]++
}

func (h *Histogram) clone() Histogram {
	out := Histogram{Count: h.Count, Total: h.Total, Max: h.Max, Buckets: make([]uint64, len(h.Buckets))}
	copy(out.Buckets, h.Buckets)
	return out
}

// Mean returns the histogram's arithmetic mean duration, or 0 if empty.
func (h Histogram) Mean() time.Duration {
	if h.Count == 0 {
		return 0
	}
	return h.Total / time.Duration(h.Count)
}

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)
	lifetime    = make(map[string]*Histogram)
)

// Track returns a stop function that records the elapsed time under the
// given name, both into the current frame's totals and into that name's
// lifetime histogram. Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		Add(name, time.Since(start))
	}
}

// ResetFrame clears current per-frame totals. Call at the start of each
// frame. Lifetime histograms are unaffected.
func ResetFrame() {
	mu.Lock()
	for k := range frameTotals {
		delete(frameTotals, k)
	}
	mu.Unlock()
}

// Snapshot returns a copy of current per-frame totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(frameTotals))
	maps.Copy(out, frameTotals)
	return out
}

// Total returns the sum of all tracked durations this frame.
func Total() time.Duration {
	ss := Snapshot()
	var sum time.Duration
	for _, v := range ss {
		sum += v
	}
	return sum
}

// SumWithPrefix returns the sum of durations whose names start with any of the given prefixes.
func SumWithPrefix(prefixes ...string) time.Duration {
	ss := Snapshot()
	var sum time.Duration
	for k, v := range ss {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				sum += v
				break
			}
		}
	}
	return sum
}

// Add adds an arbitrary duration under the given name to the current frame
// totals and to that name's lifetime histogram.
func Add(name string, d time.Duration) {
	if d <= 0 {
		return
	}
	mu.Lock()
	frameTotals[name] += d
	h, ok := lifetime[name]
	if !ok {
		h = newHistogram()
		lifetime[name] = h
	}
	h.observe(d)
	mu.Unlock()
}

// HistogramFor returns a copy of the lifetime latency histogram recorded
// under name, and whether any samples have been observed.
func HistogramFor(name string) (Histogram, bool) {
	mu.Lock()
	defer mu.Unlock()
	h, ok := lifetime[name]
	if !ok {
		return Histogram{}, false
	}
	return h.clone(), true
}

// ComponentBreakdown groups lifetime histograms by the dotted prefix up to
// the first '.' (e.g. "mesh", "worldmgr", "voxel") and merges each group's
// samples into one histogram, so a caller can compare components (meshing
// vs. streaming vs. budget enforcement) without enumerating every
// individual operation name.
func ComponentBreakdown() map[string]Histogram {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]Histogram)
	for name, h := range lifetime {
		component := name
		if i := strings.IndexByte(name, '.'); i >= 0 {
			component = name[:i]
		}
		merged, ok := out[component]
		if !ok {
			merged = Histogram{Buckets: make([]uint64, len(histogramBoundsMs)+1)}
		}
		merged.Count += h.Count
		merged.Total += h.Total
		if h.Max > merged.Max {
			merged.Max = h.Max
		}
		for i, c := range h.Buckets {
			merged.Buckets[i] += c
		}
		out[component] = merged
	}
	return out
}

// TopN formats top N durations from the current frame totals.
// Example: "renderer.Render:4.2ms, meshing.BuildGreedyMeshForChunk:2.1ms"
func TopN(n int) string {
	return TopNCurrentFrame(n)
}

// TopNCurrentFrame formats top N durations from ONLY the current frame totals.
func TopNCurrentFrame(n int) string {
	mu.Lock()
	defer mu.Unlock()

	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(frameTotals))
	for k, v := range frameTotals {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].dur > list[j].dur })
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ms := float64(list[i].dur.Microseconds()) / 1000.0
		parts = append(parts, list[i].name+":"+formatMs(ms))
	}
	return strings.Join(parts, ", ")
}

func formatMs(ms float64) string {
	// keep one decimal for readability
	return trimTrailingZerosF(ms) + "ms"
}

func trimTrailingZerosF(f float64) string {
	// Format with one decimal place; drop .0 if integer.
	// Avoid fmt to keep this tiny; manual logic is fine here.
	whole := int64(f)
	frac := int64((f-float64(whole))*10.0 + 0.0001)
	if frac <= 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := false
	if i < 0 {
		neg = true
		i = -i
	}
	buf := make([]byte, 0, 20)
	for i > 0 {
		d := i % 10
		buf = append(buf, byte('0'+d))
		i /= 10
	}
	// reverse
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}
