package testitems

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/pkg/logger"
)

// Constants for random number generation.
const (
	ratingShapeDivisor = 8
	unratedEvery       = 5
	namedEvery         = 2
	originatorPoolSize = 50
)

// Constants for rating shape cases.
const (
	caseBalanced           = 0
	caseQuickWin           = 1
	caseEscalation         = 2
	caseAllMax             = 3
	caseAllMin             = 4
	caseUrgentButHard      = 5
	caseEasyButUninspiring = 6
	caseWideRange          = 7
)

// Sample content for generated items. The server treats content as opaque
// text, so a small pool is enough to keep listings readable.
var contentPool = []string{
	"Customers keep asking for CSV export and we copy the numbers by hand",
	"The deploy pipeline needs a manual approval nobody remembers to give",
	"Support macros are out of date and answers contradict the docs",
	"Weekly report takes two hours to assemble from four dashboards",
	"New starters wait days for repository access",
	"The staging database diverges from production every sprint",
	"Invoice reminders go out late because the job runs on someone's laptop",
	"Error alerts page the whole team for non-incidents",
	"Meeting notes live in five different tools",
	"The search box on the help site returns nothing useful",
	"Release notes are written from memory after the fact",
	"Onboarding checklist still references the old VPN",
	"Customer churn survey answers never reach the product team",
	"We rebuild the same spreadsheet for every quarterly review",
	"Feature flags pile up and nobody dares remove them",
	"The office wifi drops during every all-hands call",
}

// Org tags for generated items.
var orgPool = []string{"acme", "globex", "initech", "umbrella"}

// Display names paired with originator IDs on roughly half the items.
var namePool = []string{
	"Sam Verde", "Alex Moreau", "Priya Nair", "Jo Lindqvist",
	"Dana Okafor", "Kim Aalto", "Robin Castellanos", "Lee Tanaka",
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// randomRating returns a random rating in [lo, hi].
func randomRating(lo, hi int) int {
	return lo + randomInt(hi-lo+1)
}

// generateItems creates the specified number of items with varied rating
// shapes. Every fifth item is submitted without ratings to exercise the
// capture-then-rate flow.
func generateItems(ctx context.Context, config *Config, stats *Stats) ([]GeneratedItem, error) {
	logger.Get().Info(ctx, "generating items", logger.Int("numItems", config.NumItems))

	items := make([]GeneratedItem, config.NumItems)

	// Generate items concurrently
	type itemResult struct {
		index int
		item  GeneratedItem
		err   error
	}

	resultChan := make(chan itemResult, config.NumItems)

	// Use worker pool for item generation
	workerCount := minInt(config.Workers, config.NumItems)
	itemsPerWorker := config.NumItems / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * itemsPerWorker
		end := start + itemsPerWorker
		if worker == workerCount-1 {
			end = config.NumItems // Last worker gets remaining items
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- itemResult{index: i, err: ctx.Err()}
					return
				default:
					item, err := generateSingleItem(i)
					resultChan <- itemResult{index: i, item: item, err: err}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumItems; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during item generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate item %d: %w", result.index, result.err)
			}
			items[result.index] = result.item
		}
	}

	stats.ItemsGenerated = len(items)
	logger.Get().Info(ctx, "generated items successfully", logger.Int("count", len(items)))

	return items, nil
}

// generateSingleItem creates one item payload. Rated items carry the result
// the ranking engine predicts for their ratings so responses can be checked.
func generateSingleItem(index int) (GeneratedItem, error) {
	payload := NewItem{
		Content:    contentPool[randomInt(len(contentPool))],
		Originator: fmt.Sprintf("originator-%d", index%originatorPoolSize),
		Org:        orgPool[randomInt(len(orgPool))],
	}
	if index%namedEvery == 0 {
		payload.OriginatorName = namePool[randomInt(len(namePool))]
	}

	// Every fifth item stays unrated at capture time.
	if index%unratedEvery == unratedEvery-1 {
		return GeneratedItem{Payload: payload}, nil
	}

	ratings := generateVariedRatings()
	expected, err := ranking.Compute(ratings)
	if err != nil {
		return GeneratedItem{}, fmt.Errorf("generated an invalid rating vector %+v: %w", ratings, err)
	}

	payload.Ratings = &ratings
	return GeneratedItem{Payload: payload, Expected: &expected}, nil
}

// generateVariedRatings creates a rating vector with varied shape so the
// submitted backlog spans all tiers and includes escalations.
func generateVariedRatings() ranking.Ratings {
	switch randomInt(ratingShapeDivisor) {
	case caseBalanced:
		// Everything mid-range - the common case
		return ranking.Ratings{
			CustomerImpact: randomRating(4, 7),
			TeamEnergy:     randomRating(4, 7),
			Frequency:      randomRating(4, 7),
			Ease:           randomRating(4, 7),
		}
	case caseQuickWin:
		// High urgency and high feasibility
		return ranking.Ratings{
			CustomerImpact: randomRating(7, 10),
			TeamEnergy:     randomRating(7, 10),
			Frequency:      randomRating(7, 10),
			Ease:           randomRating(7, 10),
		}
	case caseEscalation:
		// The team cares a lot but the fix looks hard
		return ranking.Ratings{
			CustomerImpact: randomRating(3, 8),
			TeamEnergy:     randomRating(9, 10),
			Frequency:      randomRating(3, 8),
			Ease:           randomRating(1, 3),
		}
	case caseAllMax:
		// Upper corner of the domain - rare
		return ranking.Ratings{CustomerImpact: 10, TeamEnergy: 10, Frequency: 10, Ease: 10}
	case caseAllMin:
		// Lower corner of the domain - rare
		return ranking.Ratings{CustomerImpact: 1, TeamEnergy: 1, Frequency: 1, Ease: 1}
	case caseUrgentButHard:
		// High urgency, low feasibility
		return ranking.Ratings{
			CustomerImpact: randomRating(8, 10),
			TeamEnergy:     randomRating(5, 8),
			Frequency:      randomRating(1, 4),
			Ease:           randomRating(1, 4),
		}
	case caseEasyButUninspiring:
		// Low urgency, high feasibility
		return ranking.Ratings{
			CustomerImpact: randomRating(1, 4),
			TeamEnergy:     randomRating(1, 4),
			Frequency:      randomRating(7, 10),
			Ease:           randomRating(7, 10),
		}
	case caseWideRange:
		fallthrough
	default:
		// Random across the full domain
		return ranking.Ratings{
			CustomerImpact: randomRating(1, 10),
			TeamEnergy:     randomRating(1, 10),
			Frequency:      randomRating(1, 10),
			Ease:           randomRating(1, 10),
		}
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
