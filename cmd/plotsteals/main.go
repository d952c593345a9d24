// Command plotsteals renders throughput and steal-rate curves against
// worker count, one line per steal policy, from cmd/bench's
// test-results.json.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// BenchmarkResult mirrors cmd/bench's report schema.
type BenchmarkResult struct {
	Policy              string  `json:"policy"`
	NumWorkers          int     `json:"num_workers"`
	NumMessagesConsumed int64   `json:"num_messages_consumed"`
	Throughput          float64 `json:"throughput_msgs_sec"`
	StealRate           float64 `json:"steal_rate"`
}

// SystemInfo mirrors cmd/bench's report schema.
type SystemInfo struct {
	NumCPU       int    `json:"num_cpu"`
	AvailableCPU int    `json:"available_cpu"`
	GOARCH       string `json:"go_arch"`
}

// FullReport mirrors cmd/bench's report schema.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// categoryTicks renders integer worker counts as an evenly-spaced
// categorical X-axis instead of a continuous numeric one.
type categoryTicks struct {
	positions []float64
	labels    []string
}

func (ct categoryTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, pos := range ct.positions {
		if pos >= min && pos <= max {
			ticks = append(ticks, plot.Tick{Value: pos, Label: ct.labels[i]})
		}
	}
	return ticks
}

func darkTheme(p *plot.Plot) {
	p.BackgroundColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	p.Title.TextStyle.Color = white
	p.X.Label.TextStyle.Color = white
	p.Y.Label.TextStyle.Color = white
	p.X.Color = white
	p.Y.Color = white
	p.X.Tick.Label.Color = white
	p.Y.Tick.Label.Color = white
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Color = white
}

func main() {
	jsonFile := flag.String("jsonfile", "test-results.json", "Path to JSON file containing bench sessions")
	outputPrefix := flag.String("out", "steal_graph", "Output graph image filename prefix")
	flag.Parse()

	data, err := os.ReadFile(*jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file: %v\n", err)
		os.Exit(1)
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found in JSON.")
		os.Exit(1)
	}
	last := sessions[len(sessions)-1]

	// policy -> worker count -> averaged samples.
	throughputByPolicy := make(map[string]map[int][]float64)
	stealRateByPolicy := make(map[string]map[int][]float64)
	workerSet := make(map[int]struct{})

	for _, b := range last.Benchmarks {
		workerSet[b.NumWorkers] = struct{}{}
		if _, ok := throughputByPolicy[b.Policy]; !ok {
			throughputByPolicy[b.Policy] = make(map[int][]float64)
			stealRateByPolicy[b.Policy] = make(map[int][]float64)
		}
		throughputByPolicy[b.Policy][b.NumWorkers] = append(throughputByPolicy[b.Policy][b.NumWorkers], b.Throughput)
		stealRateByPolicy[b.Policy][b.NumWorkers] = append(stealRateByPolicy[b.Policy][b.NumWorkers], b.StealRate)
	}

	var workers []int
	for w := range workerSet {
		workers = append(workers, w)
	}
	sort.Ints(workers)

	positions := make([]float64, len(workers))
	labels := make([]string, len(workers))
	workerIndex := make(map[int]float64)
	for i, w := range workers {
		positions[i] = float64(i)
		labels[i] = strconv.Itoa(w)
		workerIndex[w] = float64(i)
	}

	if err := plotMetric(*outputPrefix+"_throughput.png", "Throughput vs. worker count",
		"Throughput (msgs/sec)", throughputByPolicy, workerIndex, positions, labels); err != nil {
		fmt.Fprintf(os.Stderr, "Error plotting throughput: %v\n", err)
		os.Exit(1)
	}
	if err := plotMetric(*outputPrefix+"_steal_rate.png", "Steal rate vs. worker count",
		"Steal rate (fraction of consumed tasks)", stealRateByPolicy, workerIndex, positions, labels); err != nil {
		fmt.Fprintf(os.Stderr, "Error plotting steal rate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Graphs saved with prefix %s\n", *outputPrefix)
}

func plotMetric(filename, title, yLabel string, byPolicy map[string]map[int][]float64,
	workerIndex map[int]float64, positions []float64, labels []string) error {

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Worker count"
	p.Y.Label.Text = yLabel
	darkTheme(p)
	p.X.Tick.Marker = categoryTicks{positions: positions, labels: labels}
	p.Add(plotter.NewGrid())

	var policyNames []string
	for name := range byPolicy {
		policyNames = append(policyNames, name)
	}
	sort.Strings(policyNames)

	colors := plotutil.SoftColors
	shapes := []draw.GlyphDrawer{draw.CircleGlyph{}, draw.SquareGlyph{}, draw.TriangleGlyph{}}

	for i, name := range policyNames {
		var pts plotter.XYs
		for w, vals := range byPolicy[name] {
			if len(vals) == 0 {
				continue
			}
			pts = append(pts, struct{ X, Y float64 }{X: workerIndex[w], Y: mean(vals)})
		}
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i%len(colors)]

		points, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		points.GlyphStyle.Radius = vg.Points(4)
		points.Color = colors[i%len(colors)]
		points.Shape = shapes[i%len(shapes)]

		p.Add(line, points)
		p.Legend.Add(name, line, points)
	}

	return p.Save(10*vg.Inch, 7*vg.Inch, filename)
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
