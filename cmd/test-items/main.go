package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/felmahq/felma/internal/testitems"
)

// Default configuration constants.
const (
	defaultNumItems    = 5000
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultReRate      = 200
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numItems   = flag.Int("items", defaultNumItems, "Number of items to generate and submit")
		topN       = flag.Int("top", defaultTopN, "Number of top entries to fetch from the ranked listing")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		reRate     = flag.Int("rerate", defaultReRate, "Number of items to re-rate after submission")
		outputFile = flag.String("output", "", "Output file for generated items (default: generated_items_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testitems.ShowHelp()
		return
	}

	// Setup logging
	if err := testitems.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testitems.Config{
		BaseURL:    *baseURL,
		NumItems:   *numItems,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		ReRate:     *reRate,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the test
	if err := testitems.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
