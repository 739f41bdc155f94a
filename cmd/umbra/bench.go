package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"umbra-hq/umbra/pkg/cli"
)

var benchFlags struct {
	target      string
	path        string
	method      string
	body        string
	duration    time.Duration
	rate        int
	concurrency int
	format      string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load test the proxy",
	Long: `Drive synthetic HTTP traffic through the proxy at a fixed rate.

The bench command sends real requests to a running proxy and reports latency
percentiles and status code counts. It exists to exercise the shadow path
under load: run it against the proxy and watch queue depth, overflow counts,
and delivery outcomes on /metrics while it runs.

Metrics Collected:
  - Request throughput (requests/sec)
  - Latency percentiles (p50, p95, p99, max)
  - Status code distribution
  - Transport failures

Examples:
  # 30 seconds at 10 req/s
  umbra bench --target http://localhost:8080

  # Heavier load with more senders
  umbra bench --duration 60s --rate 100 --concurrency 10

  # POST traffic against a specific path
  umbra bench --method POST --body '{"ping":true}' --path /api/echo`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVar(&benchFlags.target, "target", "http://localhost:8080", "proxy URL")
	benchCmd.Flags().StringVar(&benchFlags.path, "path", "/", "request path")
	benchCmd.Flags().StringVar(&benchFlags.method, "method", http.MethodGet, "HTTP method")
	benchCmd.Flags().StringVar(&benchFlags.body, "body", "", "request body (sent as application/json)")
	benchCmd.Flags().DurationVar(&benchFlags.duration, "duration", 30*time.Second, "test duration")
	benchCmd.Flags().IntVar(&benchFlags.rate, "rate", 10, "requests per second")
	benchCmd.Flags().IntVar(&benchFlags.concurrency, "concurrency", 4, "concurrent senders")
	benchCmd.Flags().StringVar(&benchFlags.format, "format", "text", "output format: text, json")
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFlags.rate <= 0 {
		return cli.NewCommandError("bench", fmt.Errorf("rate must be positive"))
	}
	if benchFlags.concurrency <= 0 {
		return cli.NewCommandError("bench", fmt.Errorf("concurrency must be positive"))
	}

	fmt.Println("Umbra Bench")
	fmt.Println("===========")
	fmt.Printf("Target: %s%s\n", benchFlags.target, benchFlags.path)
	fmt.Printf("Duration: %s\n", benchFlags.duration)
	fmt.Printf("Rate: %d req/s\n", benchFlags.rate)
	fmt.Printf("Concurrency: %d\n", benchFlags.concurrency)
	fmt.Println()

	totalRequests := int(benchFlags.duration.Seconds()) * benchFlags.rate
	if totalRequests < 1 {
		totalRequests = 1
	}

	fmt.Println("Running...")
	fmt.Println()

	results := runLoadTest(totalRequests, os.Stdout)

	if benchFlags.format == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, results)
	}
	displayResults(results)
	return nil
}

// benchResults carries everything one bench run measured.
type benchResults struct {
	TotalRequests int             `json:"total_requests"`
	Completed     int             `json:"completed"`
	Failed        int             `json:"failed"`
	Duration      float64         `json:"duration_seconds"`
	Throughput    float64         `json:"throughput_rps"`
	StatusCodes   map[string]int  `json:"status_codes"`
	Latency       *latencySummary `json:"latency_ms,omitempty"`
}

type latencySummary struct {
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Max    float64 `json:"max"`
}

func runLoadTest(totalRequests int, progressTo io.Writer) *benchResults {
	var (
		mu        sync.Mutex
		latencies []time.Duration
		codes     = make(map[string]int)
		completed int64
		failed    int64
	)

	client := &http.Client{Timeout: 10 * time.Second}
	url := strings.TrimSuffix(benchFlags.target, "/") + benchFlags.path

	progress := cli.NewProgressReporter(progressTo)
	progress.Start(int64(totalRequests))

	jobs := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < benchFlags.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				latency, status, err := sendOne(client, url)
				if err != nil {
					atomic.AddInt64(&failed, 1)
				} else {
					mu.Lock()
					latencies = append(latencies, latency)
					codes[strconv.Itoa(status)]++
					mu.Unlock()
					atomic.AddInt64(&completed, 1)
				}
				progress.Update(atomic.LoadInt64(&completed) + atomic.LoadInt64(&failed))
			}
		}()
	}

	start := time.Now()
	interval := time.Second / time.Duration(benchFlags.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for sent := 0; sent < totalRequests; sent++ {
		<-ticker.C
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	progress.Finish()

	elapsed := time.Since(start)
	results := &benchResults{
		TotalRequests: totalRequests,
		Completed:     int(completed),
		Failed:        int(failed),
		Duration:      elapsed.Seconds(),
		StatusCodes:   codes,
		Latency:       summarizeLatencies(latencies),
	}
	if elapsed > 0 {
		results.Throughput = float64(completed) / elapsed.Seconds()
	}
	return results
}

// sendOne performs a single request and returns its wall time and status.
func sendOne(client *http.Client, url string) (time.Duration, int, error) {
	var body io.Reader
	if benchFlags.body != "" {
		body = strings.NewReader(benchFlags.body)
	}

	req, err := http.NewRequest(benchFlags.method, url, body)
	if err != nil {
		return 0, 0, err
	}
	if benchFlags.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return latency, 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return latency, resp.StatusCode, nil
}

func summarizeLatencies(latencies []time.Duration) *latencySummary {
	if len(latencies) == 0 {
		return nil
	}

	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}

	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

	return &latencySummary{
		Min:    ms(sorted[0]),
		Mean:   ms(sum / time.Duration(len(sorted))),
		Median: ms(percentile(sorted, 0.50)),
		P95:    ms(percentile(sorted, 0.95)),
		P99:    ms(percentile(sorted, 0.99)),
		Max:    ms(sorted[len(sorted)-1]),
	}
}

// percentile picks the q-quantile from an already sorted slice.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func displayResults(results *benchResults) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Println("--------")
	fmt.Printf("Requests:        %d total, %d completed, %d failed\n",
		results.TotalRequests, results.Completed, results.Failed)
	fmt.Printf("Duration:        %.1fs\n", results.Duration)

	if results.Throughput > 0 {
		fmt.Printf("Throughput:      %.2f req/s\n", results.Throughput)
	}

	if results.Latency != nil {
		fmt.Println()
		fmt.Println("Latency:")
		fmt.Printf("  Min:     %.1fms\n", results.Latency.Min)
		fmt.Printf("  Mean:    %.1fms\n", results.Latency.Mean)
		fmt.Printf("  Median:  %.1fms\n", results.Latency.Median)
		fmt.Printf("  p95:     %.1fms\n", results.Latency.P95)
		fmt.Printf("  p99:     %.1fms\n", results.Latency.P99)
		fmt.Printf("  Max:     %.1fms\n", results.Latency.Max)
	}

	if len(results.StatusCodes) > 0 {
		fmt.Println()
		fmt.Println("Status Codes:")
		codes := make([]string, 0, len(results.StatusCodes))
		for code := range results.StatusCodes {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Printf("  %s:     %d\n", code, results.StatusCodes[code])
		}
	}
}
