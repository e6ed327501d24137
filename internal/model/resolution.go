package model

import "time"

// StageResult records one step of progressive narrowing
type StageResult struct {
	StageIndex        int        `json:"stage_index"`
	ConstraintApplied Constraint `json:"constraint_applied"`
	CandidatesBefore  []string   `json:"candidates_before"` // Names in discovery/filter order
	CandidatesAfter   []string   `json:"candidates_after"`
	Queries           []string   `json:"queries,omitempty"` // Queries issued during the stage
	Backtracked       bool       `json:"backtracked,omitempty"`
	Relaxed           bool       `json:"relaxed,omitempty"` // Stage of the adopted relaxed run
}

// Resolution is the outcome of one resolve run
type Resolution struct {
	RunID              string        `json:"run_id"`
	Query              string        `json:"query"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
	BestCandidate      *Candidate    `json:"best_candidate,omitempty"`
	Score              float64       `json:"score"`
	Answer             string        `json:"answer"`
	Uncertain          bool          `json:"uncertain"`
	Candidates         []*Candidate  `json:"candidates"`          // Accepted candidates, best first
	RejectedCandidates []*Candidate  `json:"rejected_candidates"` // Checked and rejected
	Unverified         []string      `json:"unverified,omitempty"`
	StageHistory       []StageResult `json:"stage_history"`
	RelaxedConstraints []Constraint  `json:"relaxed_constraints,omitempty"` // Set only when a relaxed set was adopted
	Partial            bool          `json:"partial,omitempty"`             // Deadline hit before all work finished
}

// UncertainAnswer is reported when no candidate is accepted with enough confidence
const UncertainAnswer = "Unable to determine with confidence"
