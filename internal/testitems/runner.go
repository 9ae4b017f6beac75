package testitems

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felmahq/felma/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete item test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting felma item test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("items", config.NumItems),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.Int("reRate", config.ReRate),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate items
	items, err := generateItems(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("item generation failed: %w", err)
	}

	// Step 3: Submit items concurrently, checking each returned rank
	if err := submitItems(ctx, config, client, items, stats); err != nil {
		return fmt.Errorf("item submission failed: %w", err)
	}

	// Step 4: Re-rate a sample and check the new ranks
	if err := reRateItems(ctx, config, client, items, stats); err != nil {
		return fmt.Errorf("re-rating failed: %w", err)
	}

	// Step 5: Fetch the ranked listing
	listing, err := fetchRankedListing(ctx, config, client, stats)
	if err != nil {
		return fmt.Errorf("listing retrieval failed: %w", err)
	}

	// Step 6: Fetch the service's own counters
	serviceStats, err := fetchServiceStats(ctx, config, client)
	if err != nil {
		logger.Get().Warn(ctx, "failed to fetch service stats", logger.Error(err))
		serviceStats = nil
	}

	// Step 7: Verify results
	if err := verifyResults(ctx, config, listing, serviceStats, items, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save items to file
	if err := saveItemsToFile(ctx, config, items); err != nil {
		logger.Get().Warn(ctx, "failed to save items to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.RankMismatches > 0 {
		return fmt.Errorf("%d responses did not match the ranking engine", stats.RankMismatches)
	}

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveItemsToFile saves the generated item payloads to a JSON file.
func saveItemsToFile(ctx context.Context, config *Config, items []GeneratedItem) error {
	if len(items) == 0 {
		return fmt.Errorf("no items to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_items_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write items to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, item := range items {
		jsonData, err := marshalJSON(item.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal item %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write item %d: %w", i, err)
		}

		// Add comma except for last item
		if i < len(items)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "items saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, itemsPerSecond float64

	if stats.ItemsSubmitted > 0 {
		successRate = float64(stats.ItemsSuccessful) / float64(stats.ItemsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		itemsPerSecond = float64(stats.ItemsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("itemsGenerated", stats.ItemsGenerated),
		logger.Int("itemsSubmitted", stats.ItemsSubmitted),
		logger.Int("itemsSuccessful", stats.ItemsSuccessful),
		logger.Int("itemsFailed", stats.ItemsFailed),
		logger.Int("rankMismatches", stats.RankMismatches),
		logger.Int("itemsReRated", stats.ItemsReRated),
		logger.Int("reRateFailures", stats.ReRateFailures),
		logger.Int("listingRetrieved", stats.ListingRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("itemsPerSecond", itemsPerSecond))
}
