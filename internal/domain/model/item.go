// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felmahq/felma/internal/domain/ranking"
)

// Display title constants.
const (
	titleMaxRunes = 80
	untitledLabel = "(untitled)"
)

// Item represents one submitted piece of feedback or idea.
type Item struct {
	ID         uuid.UUID // server-generated identifier
	CreatedAt  time.Time // creation timestamp, UTC
	Content    string    // free-text transcript, required
	Title      string    // optional human-chosen title
	Originator string    // profile reference of the submitter
	Org        string    // optional tenant tag, filter only

	// Ratings and the derived ranking result. Rated distinguishes a real
	// minimum-score item from a never-rated one.
	Rated          bool
	Ratings        ranking.Ratings
	PriorityRank   int
	ActionTier     ranking.Tier
	EscalationFlag bool

	// Workflow position and the note captured at each advancement.
	Stage      Stage
	StageNotes map[Stage]string
}

// DisplayTitle resolves the title shown for the item: the human-chosen
// title when present, otherwise a whitespace-collapsed prefix of the
// content capped at 80 runes, otherwise "(untitled)".
func (i Item) DisplayTitle() string {
	if t := strings.TrimSpace(i.Title); t != "" {
		return t
	}
	collapsed := strings.Join(strings.Fields(i.Content), " ")
	if collapsed == "" {
		return untitledLabel
	}
	runes := []rune(collapsed)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes])
	}
	return collapsed
}

// ApplyRanking stores the four ratings and the engine result on the item.
func (i *Item) ApplyRanking(r ranking.Ratings, res ranking.Result) {
	i.Rated = true
	i.Ratings = r
	i.PriorityRank = res.PriorityRank
	i.ActionTier = res.ActionTier
	i.EscalationFlag = res.EscalationFlag
}

// CloneStageNotes returns a copy of the item's stage notes so callers can
// hold them without sharing the map.
func (i Item) CloneStageNotes() map[Stage]string {
	if i.StageNotes == nil {
		return nil
	}
	notes := make(map[Stage]string, len(i.StageNotes))
	for stage, note := range i.StageNotes {
		notes[stage] = note
	}
	return notes
}

// Profile identifies an item originator.
type Profile struct {
	ID   string
	Name string
	Org  string
}
