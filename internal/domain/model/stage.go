package model

import (
	"fmt"
	"strings"
)

// Stage is one step of the linear item workflow. Items advance one stage
// at a time and never move backwards.
type Stage string

// Workflow stages in order.
const (
	StageCapture   Stage = "capture"
	StageClarify   Stage = "clarify"
	StageInvolve   Stage = "involve"
	StageChoose    Stage = "choose"
	StagePrepare   Stage = "prepare"
	StageAct       Stage = "act"
	StageLearn     Stage = "learn"
	StageRecognise Stage = "recognise"
	StageShare     Stage = "share"
)

// stageSequence defines the advancement order.
var stageSequence = []Stage{
	StageCapture,
	StageClarify,
	StageInvolve,
	StageChoose,
	StagePrepare,
	StageAct,
	StageLearn,
	StageRecognise,
	StageShare,
}

// stageIndex maps each stage to its position in the sequence.
var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(stageSequence))
	for i, s := range stageSequence {
		m[s] = i
	}
	return m
}()

// Stages returns the workflow stages in advancement order.
func Stages() []Stage {
	out := make([]Stage, len(stageSequence))
	copy(out, stageSequence)
	return out
}

// ParseStage converts a wire label into a Stage, rejecting unknown labels.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := stageIndex[stage]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
	return stage, nil
}

// Valid reports whether the stage is one of the nine workflow stages.
func (s Stage) Valid() bool {
	_, ok := stageIndex[s]
	return ok
}

// Index returns the stage's position in the workflow, starting at zero.
func (s Stage) Index() int {
	return stageIndex[s]
}

// Next returns the following stage. ok is false at the final stage.
func (s Stage) Next() (next Stage, ok bool) {
	i, known := stageIndex[s]
	if !known || i+1 >= len(stageSequence) {
		return "", false
	}
	return stageSequence[i+1], true
}
