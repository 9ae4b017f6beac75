package testitems

import (
	"context"
	"fmt"
	"log"
)

// fetchRankedListing retrieves the top N entries of the ranked listing.
func fetchRankedListing(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]ItemResponse, error) {
	log.Printf("🏆 Getting top %d items from the ranked listing...", config.TopN)

	url := fmt.Sprintf("%s/items?sort=rank&limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var listing []ItemResponse
	if err := unmarshalJSON(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.ListingRetrieved = len(listing)
	log.Printf("✅ Retrieved %d listing entries", len(listing))

	return listing, nil
}

// fetchServiceStats retrieves the service's own counters from /stats.
func fetchServiceStats(ctx context.Context, config *Config, client *HTTPClient) (map[string]any, error) {
	url := config.BaseURL + "/stats"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var serviceStats map[string]any
	if err := unmarshalJSON(body, &serviceStats); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return serviceStats, nil
}
