// Command bench drives the work-stealing pool across worker counts and
// steal policies, reporting throughput, consumption counts, and steal
// rates for each combination.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/i5heu/workqueue/internal/platform"
	"github.com/i5heu/workqueue/internal/workbench"
	"github.com/i5heu/workqueue/pkg/config"
	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// BenchmarkResult holds results for one (workers, policy) run.
type BenchmarkResult struct {
	Policy              string  `json:"policy"`
	NumWorkers          int     `json:"num_workers"`
	NumMessages         int64   `json:"num_messages"`          // produced count
	NumMessagesConsumed int64   `json:"num_messages_consumed"` // consumed count
	Steals              int64   `json:"steals"`
	TestDuration        string  `json:"test_duration"`
	ActualElapsed       string  `json:"actual_elapsed"`
	Throughput          float64 `json:"throughput_msgs_sec"`
	StealRate           float64 `json:"steal_rate"` // steals / consumed
	Timestamp           int64   `json:"timestamp"`
	GoVersion           string  `json:"go_version"`
}

// SystemInfo holds system information gathered via gopsutil.
type SystemInfo struct {
	NumCPU       int     `json:"num_cpu"`
	AvailableCPU int     `json:"available_cpu"`
	CPUModel     string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz  float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH       string  `json:"go_arch"`
	TotalMemory  uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport represents one complete benchmarking session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

func outputMarkdownTable(jsonFile string) {
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file %q: %v\n", jsonFile, err)
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
	rows := append([]BenchmarkResult(nil), last.Benchmarks...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Throughput > rows[j].Throughput })

	fmt.Println("## Last Session Benchmark Summary")
	fmt.Println()
	fmt.Println("| Policy            | Workers | Throughput (msgs/sec) | Steal rate |")
	fmt.Println("|-------------------|---------|------------------------|------------|")
	for _, r := range rows {
		fmt.Printf("| %-17s | %7d | %22.0f | %9.2f%% |\n", r.Policy, r.NumWorkers, r.Throughput, r.StealRate*100)
	}
}

func gatherSystemInfo() SystemInfo {
	var cpuModel string
	var cpuSpeed float64
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		cpuModel = infos[0].ModelName
		cpuSpeed = infos[0].Mhz
	}
	var totalMemory uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		totalMemory = vm.Total
	}
	return SystemInfo{
		NumCPU:       runtime.NumCPU(),
		AvailableCPU: platform.AvailableCPUs(),
		CPUModel:     cpuModel,
		CPUSpeedMHz:  cpuSpeed,
		GOARCH:       runtime.GOARCH,
		TotalMemory:  totalMemory,
	}
}

var policies = []workbench.StealPolicy{
	workbench.StealPolicyBestOf2,
	workbench.StealPolicyOneRandom,
	workbench.StealPolicyBestOfAll,
}

func main() {
	testIterations := flag.Int("iter", 3, "Number of test iterations per worker-count/policy setting")
	workersFlag := flag.Int("workers", 0, "If non-zero, test only that worker count; if 0, test a spread up to available CPUs")
	jsonExport := flag.Bool("json", false, "Export results as JSON to test-results.json")
	markdownTable := flag.Bool("markdown-table", false, "Output markdown table from test-results.json and exit")
	jsonFileForMarkdown := flag.String("jsonfile", "test-results.json", "Path to JSON file for markdown table")
	progressFlag := flag.Bool("progress", false, "Display a progress bar")
	configPath := flag.String("config", "", "Path to a bench.yaml describing runs; overrides -workers when set")
	flag.Parse()

	if *markdownTable {
		outputMarkdownTable(*jsonFileForMarkdown)
		return
	}

	available := platform.AvailableCPUs()

	type run struct {
		workers        int
		policy         workbench.StealPolicy
		duration       time.Duration
		initialPerHead int
	}
	var runs []run
	testDuration := 5 * time.Second
	initialPerHead := 200_000

	if *configPath != "" {
		f, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config %q: %v\n", *configPath, err)
			os.Exit(1)
		}
		for _, r := range f.Runs {
			cr := run{workers: r.NumWorkers, policy: r.StealPolicy(), duration: testDuration, initialPerHead: initialPerHead}
			if r.DurationMS > 0 {
				cr.duration = time.Duration(r.DurationMS) * time.Millisecond
			}
			if r.InitialPerHead > 0 {
				cr.initialPerHead = r.InitialPerHead
			}
			runs = append(runs, cr)
		}
	} else {
		var workerCounts []int
		if *workersFlag > 0 {
			workerCounts = []int{*workersFlag}
		} else {
			for _, v := range []int{1, 2, 4, 8, 16, 32, 64} {
				if v <= available {
					workerCounts = append(workerCounts, v)
				}
			}
			if len(workerCounts) == 0 {
				workerCounts = []int{available}
			}
		}
		for _, w := range workerCounts {
			for _, p := range policies {
				runs = append(runs, run{workers: w, policy: p, duration: testDuration, initialPerHead: initialPerHead})
			}
		}
	}

	totalTests := len(runs) * (*testIterations)
	var bar *progressbar.ProgressBar
	if *progressFlag {
		bar = progressbar.Default(int64(totalTests))
	}

	sysInfo := gatherSystemInfo()
	fmt.Printf("=============================\n")
	fmt.Printf("available CPUs = %d (NumCPU = %d)\n", available, sysInfo.NumCPU)
	fmt.Printf("=============================\n")

	ctx := context.Background()
	var results []BenchmarkResult
	for _, r := range runs {
		for iteration := 1; iteration <= *testIterations; iteration++ {
			runtime.GC()
			cfg := workbench.Config{NumWorkers: r.workers, InitialPerHead: r.initialPerHead, Policy: r.policy}
			res := workbench.RunTimedPool(ctx, cfg, r.duration, func(i int) int { return i })

			throughput := float64(res.Consumed) / res.Elapsed.Seconds()
			var stealRate float64
			if res.Consumed > 0 {
				stealRate = float64(res.Steals) / float64(res.Consumed)
			}

			fmt.Printf("  policy=%-17s workers=%-4d iter=%d/%d => consumed=%d, throughput=%.0f msg/s, steals=%d, took=%v\n",
				r.policy, r.workers, iteration, *testIterations, res.Consumed, throughput, res.Steals, res.Elapsed)

			if bar != nil {
				_ = bar.Add(1)
			}

			results = append(results, BenchmarkResult{
				Policy:              r.policy.String(),
				NumWorkers:          r.workers,
				NumMessages:         res.Produced,
				NumMessagesConsumed: res.Consumed,
				Steals:              res.Steals,
				TestDuration:        r.duration.String(),
				ActualElapsed:       res.Elapsed.String(),
				Throughput:          throughput,
				StealRate:           stealRate,
				Timestamp:           time.Now().Unix(),
				GoVersion:           runtime.Version(),
			})
		}
	}

	fr := FullReport{
		SessionTime: time.Now().Format(time.RFC3339),
		SystemInfo:  sysInfo,
		Benchmarks:  results,
	}

	if *jsonExport {
		const filename = "test-results.json"
		var previous []FullReport
		if data, err := os.ReadFile(filename); err == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &previous)
		}
		updated := append(previous, fr)
		data, err := json.MarshalIndent(updated, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error marshalling JSON:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(filename, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing JSON file:", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote results to %s\n", filename)
	}
}
