package testitems

import (
	"time"

	"github.com/felmahq/felma/internal/domain/ranking"
)

// Config holds configuration for the item test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumItems   int           // Number of items to generate
	TopN       int           // Number of top entries to fetch from the listing
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	ReRate     int           // Number of items to re-rate after submission
	OutputFile string        // Output file for items
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// NewItem is the JSON payload submitted to POST /items.
type NewItem struct {
	Content        string           `json:"content"`
	Title          string           `json:"title,omitempty"`
	Originator     string           `json:"originator,omitempty"`
	OriginatorName string           `json:"originator_name,omitempty"`
	Org            string           `json:"org,omitempty"`
	Ratings        *ranking.Ratings `json:"ratings,omitempty"`
}

// ItemResponse mirrors the item document the API returns.
type ItemResponse struct {
	ID             string           `json:"id"`
	CreatedAt      string           `json:"created_at"`
	Content        string           `json:"content"`
	DisplayTitle   string           `json:"display_title"`
	OriginatorName string           `json:"originator_name,omitempty"`
	Org            string           `json:"org,omitempty"`
	Rated          bool             `json:"rated"`
	Ratings        *ranking.Ratings `json:"ratings,omitempty"`
	PriorityRank   int              `json:"priority_rank"`
	ActionTier     string           `json:"action_tier,omitempty"`
	EscalationFlag bool             `json:"escalation_flag"`
	Stage          string           `json:"stage"`
}

// GeneratedItem pairs a payload with the result the ranking engine predicts
// for it. Expected is nil for items submitted without ratings. ID is filled
// in once the server accepts the item.
type GeneratedItem struct {
	Payload  NewItem
	Expected *ranking.Result
	ID       string
}

// Stats holds test statistics
type Stats struct {
	ItemsGenerated   int
	ItemsSubmitted   int
	ItemsSuccessful  int
	ItemsFailed      int
	RankMismatches   int
	ItemsReRated     int
	ReRateFailures   int
	ListingRetrieved int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
