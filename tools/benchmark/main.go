package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// sample is one completed request
type sample struct {
	path    string
	status  int
	latency time.Duration
	err     error
}

type pathStats struct {
	count     int
	errors    int
	latencies []time.Duration
}

var defaultPaths = []string{
	"/health",
	"/api/v1/options",
	"/api/v1/options/available",
	"/api/v1/options/parents",
	"/api/v1/stats/capital-efficiency",
	"/api/v1/transactions",
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "Indexer API base URL")
	concurrency := flag.Int("concurrency", 8, "Number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "How long to run")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	client := &http.Client{Timeout: *timeout}
	samples := make(chan sample, 1024)

	var wg sync.WaitGroup
	fmt.Printf("Benchmarking %s with %d workers for %s\n\n", *baseURL, *concurrency, *duration)

	start := time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for n := 0; ; n++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				path := defaultPaths[(worker+n)%len(defaultPaths)]
				samples <- doRequest(ctx, client, *baseURL, path)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(samples)
	}()

	stats := make(map[string]*pathStats)
	total := 0
	for s := range samples {
		total++
		ps, ok := stats[s.path]
		if !ok {
			ps = &pathStats{}
			stats[s.path] = ps
		}
		ps.count++
		if s.err != nil || s.status != http.StatusOK {
			ps.errors++
			continue
		}
		ps.latencies = append(ps.latencies, s.latency)
	}
	elapsed := time.Since(start)

	printSummary(stats, total, elapsed)
}

func doRequest(ctx context.Context, client *http.Client, baseURL, path string) sample {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return sample{path: path, err: err}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return sample{path: path, err: err}
	}
	defer resp.Body.Close()

	return sample{path: path, status: resp.StatusCode, latency: time.Since(start)}
}

func printSummary(stats map[string]*pathStats, total int, elapsed time.Duration) {
	fmt.Printf("%-40s %8s %8s %10s %10s %10s\n", "PATH", "COUNT", "ERRORS", "P50", "P90", "P99")
	for _, path := range defaultPaths {
		ps, ok := stats[path]
		if !ok {
			continue
		}
		fmt.Printf("%-40s %8d %8d %10s %10s %10s\n",
			path, ps.count, ps.errors,
			percentile(ps.latencies, 0.50).Round(time.Microsecond),
			percentile(ps.latencies, 0.90).Round(time.Microsecond),
			percentile(ps.latencies, 0.99).Round(time.Microsecond))
	}
	fmt.Printf("\nTotal: %d requests in %s (%.1f req/s)\n",
		total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
}
