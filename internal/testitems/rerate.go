package testitems

import (
	"context"
	"fmt"
	"log"

	"github.com/felmahq/felma/internal/domain/ranking"
	"golang.org/x/sync/errgroup"
)

// reRateResult records the outcome of one re-rating call.
type reRateResult struct {
	ok       bool
	mismatch bool
}

// reRateItems replaces the ratings on a sample of submitted items and checks
// that the server re-ranks each one the way the engine predicts. Calls run
// concurrently, bounded by the worker count, and per-item failures are
// tallied rather than aborting the run.
func reRateItems(ctx context.Context, config *Config, client *HTTPClient, items []GeneratedItem, stats *Stats) error {
	if config.ReRate <= 0 {
		return nil
	}

	// Pick submitted items, rated or not; re-rating an unrated item is the
	// capture-then-rate flow working as intended.
	candidates := make([]int, 0, config.ReRate)
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		candidates = append(candidates, i)
		if len(candidates) == config.ReRate {
			break
		}
	}
	if len(candidates) == 0 {
		log.Println("⚠️  No submitted items available to re-rate")
		return nil
	}

	log.Printf("🔁 Re-rating %d items with %d workers...", len(candidates), config.Workers)

	results := make([]reRateResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for i, index := range candidates {
		i, index := i, index
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = reRateSingleItem(gctx, config, client, &items[index])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("re-rating aborted: %w", err)
	}

	var reRated, mismatches, failures int
	for _, r := range results {
		switch {
		case r.ok && r.mismatch:
			reRated++
			mismatches++
		case r.ok:
			reRated++
		default:
			failures++
		}
	}

	stats.ItemsReRated = reRated
	stats.RankMismatches += mismatches
	stats.ReRateFailures = failures

	log.Printf(`✅ Re-rating completed:
   Re-rated: %d
   Rank mismatches: %d
   Failed: %d
`, reRated, mismatches, failures)

	return nil
}

// reRateSingleItem sends a fresh rating vector for one item and verifies the
// returned rank, tier, and escalation flag against a local recompute.
func reRateSingleItem(ctx context.Context, config *Config, client *HTTPClient, item *GeneratedItem) reRateResult {
	ratings := generateVariedRatings()
	expected, err := ranking.Compute(ratings)
	if err != nil {
		return reRateResult{}
	}

	url := fmt.Sprintf("%s/items/%s/ratings", config.BaseURL, item.ID)
	resp, err := client.Put(ctx, url, ratings)
	if err != nil {
		return reRateResult{}
	}

	body, err := readResponseBody(resp)
	if err != nil || resp.StatusCode != StatusOK {
		return reRateResult{}
	}

	var updated ItemResponse
	if err := unmarshalJSON(body, &updated); err != nil {
		return reRateResult{}
	}

	// Keep the local expectation in step with what the server now holds.
	item.Payload.Ratings = &ratings
	item.Expected = &expected

	if !matchesExpected(updated, expected) {
		if config.Verbose {
			log.Printf("⚠️  Re-rate mismatch for %s: sent %+v, got rank %d",
				item.ID, ratings, updated.PriorityRank)
		}
		return reRateResult{ok: true, mismatch: true}
	}
	return reRateResult{ok: true}
}
