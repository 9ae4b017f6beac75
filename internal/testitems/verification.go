package testitems

import (
	"context"
	"fmt"
	"log"

	"github.com/felmahq/felma/internal/domain/ranking"
)

// matchesExpected reports whether a returned item carries exactly the rank,
// tier, and escalation flag the engine predicts for its ratings.
func matchesExpected(got ItemResponse, expected ranking.Result) bool {
	return got.Rated &&
		got.PriorityRank == expected.PriorityRank &&
		got.ActionTier == string(expected.ActionTier) &&
		got.EscalationFlag == expected.EscalationFlag
}

// verifyResults checks the ranked listing and the service counters against
// what was submitted.
func verifyResults(ctx context.Context, config *Config, listing []ItemResponse, serviceStats map[string]any, items []GeneratedItem, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(listing) == 0 {
		return fmt.Errorf("no listing entries to verify")
	}

	if err := verifyListingOrder(listing); err != nil {
		return fmt.Errorf("ranked listing out of order: %w", err)
	}
	log.Println("✅ Ranked listing order verified")

	if serviceStats != nil {
		if err := verifyServiceStats(serviceStats, items); err != nil {
			log.Printf("⚠️  Service stats warning: %v", err)
		} else {
			log.Println("✅ Service stats consistent with submissions")
		}
	}

	displayTopItems(listing, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyListingOrder checks that ranks never increase down the listing and
// that no rated item appears after an unrated one.
func verifyListingOrder(listing []ItemResponse) error {
	seenUnrated := false
	for i, entry := range listing {
		if !entry.Rated {
			seenUnrated = true
			continue
		}
		if seenUnrated {
			return fmt.Errorf("rated item at position %d appears after an unrated item", i)
		}
		if i > 0 && listing[i-1].Rated && entry.PriorityRank > listing[i-1].PriorityRank {
			return fmt.Errorf("entry %d has higher rank than entry %d", i, i-1)
		}
	}
	return nil
}

// verifyServiceStats compares the service counters against local tallies.
// The store may hold items from earlier runs, so counts may only exceed ours.
func verifyServiceStats(serviceStats map[string]any, items []GeneratedItem) error {
	var submitted, escalations float64
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		submitted++
		if item.Expected != nil && item.Expected.EscalationFlag {
			escalations++
		}
	}

	if total, ok := serviceStats["total_items"].(float64); ok && total < submitted {
		return fmt.Errorf("service reports %.0f total items, expected at least %.0f", total, submitted)
	}
	if esc, ok := serviceStats["escalations"].(float64); ok && esc < escalations {
		return fmt.Errorf("service reports %.0f escalations, expected at least %.0f", esc, escalations)
	}
	return nil
}

// displayTopItems shows the top entries from the ranked listing.
func displayTopItems(listing []ItemResponse, verbose bool) {
	topN := 10
	if len(listing) < topN {
		topN = len(listing)
	}

	log.Printf("🏆 Top %d items from the ranked listing:", topN)
	for i := 0; i < topN; i++ {
		entry := listing[i]
		flag := ""
		if entry.EscalationFlag {
			flag = " 🚩"
		}
		log.Printf("   %d. [%d] %s - %s%s", i+1, entry.PriorityRank, entry.ActionTier, entry.DisplayTitle, flag)
	}

	if verbose {
		// Show some statistics
		rated := 0
		escalations := 0
		sum := 0
		for _, entry := range listing {
			if !entry.Rated {
				continue
			}
			rated++
			sum += entry.PriorityRank
			if entry.EscalationFlag {
				escalations++
			}
		}
		if rated > 0 {
			log.Printf(`📊 Listing statistics:
   Rated entries: %d
   Average rank: %.1f
   Escalations: %d
`, rated, float64(sum)/float64(rated), escalations)
		}
	}
}
