// Package types contains common types shared between the HTTP layer,
// the application service, and the item stores.
package types

import (
	"fmt"
	"strings"

	"github.com/felmahq/felma/internal/domain/ranking"
)

// Sort selects the ordering of item listings.
type Sort string

// Supported list orderings.
const (
	// SortRank orders by priority rank descending, newest first within a
	// rank, item id as the final tie-break.
	SortRank Sort = "rank"
	// SortNewest orders by creation time descending alone.
	SortNewest Sort = "newest"
)

// ParseSort converts a wire value into a Sort. The empty string defaults
// to SortRank; anything else unknown is rejected.
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRank:
		return SortRank, nil
	case SortNewest:
		return SortNewest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
}

// ListQuery carries the listing parameters from the HTTP layer down to a
// store. A zero Org matches all orgs; Limit caps the result size.
type ListQuery struct {
	Org   string
	Sort  Sort
	Limit int
}

// NewItem carries the fields accepted when capturing an item. Ratings may
// be nil; when set, all four ratings are validated and ranked before the
// item is persisted.
type NewItem struct {
	Content        string
	Title          string
	Originator     string
	OriginatorName string
	Org            string
	Ratings        *ranking.Ratings
}
