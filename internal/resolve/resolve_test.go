package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sieve/internal/evidence"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/search"
	"github.com/ppiankov/sieve/internal/testutil"
)

var (
	foundedDigits = model.Constraint{
		ID:          "stat",
		Description: "founded in a year containing 5 digits",
		Type:        model.ConstraintStatistic,
		Value:       "founded in a year containing 5 digits",
		Weight:      2,
	}
	basedInFrance = model.Constraint{
		ID:          "loc",
		Description: "based in France",
		Type:        model.ConstraintLocation,
		Value:       "France",
		Weight:      1,
	}
)

func twoCandidateWorld() (*testutil.FakeOracle, *testutil.FakeSearch) {
	oracle := &testutil.FakeOracle{Routes: []testutil.OracleRoute{
		{Contains: []string{"Extract the names"}, Answer: `["Acme SA", "Globex Inc"]`},
		{Contains: []string{"Candidate: Globex Inc", "Constraint: based in France"}, Answer: testutil.Scores(0.3, 0.4, 0.3)},
		{Contains: []string{"Candidate: Globex Inc"}, Answer: testutil.Scores(0.8, 0.05, 0.15)},
		{Contains: []string{"Candidate: Acme SA"}, Answer: testutil.Scores(0.8, 0.05, 0.15)},
	}}
	s := &testutil.FakeSearch{Routes: []testutil.SearchRoute{
		{Contains: []string{`"Acme SA"`}, Results: []search.Result{{
			Title:   "Acme SA",
			Snippet: "Acme SA is a company headquartered in Paris.",
			URL:     "https://en.wikipedia.org/wiki/Acme_SA",
		}}},
		{Contains: []string{`"Globex Inc"`}, Results: []search.Result{{
			Title:   "Globex Inc",
			Snippet: "Globex Inc is headquartered in Springfield.",
			URL:     "https://www.reuters.com/companies/globex",
		}}},
		{Contains: []string{"5 digits"}, Results: []search.Result{{
			Title:   "Old companies",
			Snippet: "Acme SA and Globex Inc are among the oldest firms.",
			URL:     "https://example.com/old-companies",
		}}},
	}}
	return oracle, s
}

func TestResolve_AcceptsAndRejects(t *testing.T) {
	oracle, s := twoCandidateWorld()

	res, err := Resolve(context.Background(), "Which company was founded in a year containing 5 digits and is based in France?",
		[]model.Constraint{foundedDigits, basedInFrance}, model.DefaultConfig(), oracle, s)
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1)
	acme := res.Candidates[0]
	assert.Equal(t, "Acme SA", acme.Name)
	assert.InDelta(t, 0.8, acme.Score, 0.1)
	assert.False(t, acme.ShouldReject)
	assert.True(t, acme.Verified)

	require.Len(t, res.RejectedCandidates, 1)
	globex := res.RejectedCandidates[0]
	assert.Equal(t, "Globex Inc", globex.Name)
	assert.Contains(t, globex.RejectionReason, "High negative evidence (40%)")
	assert.Equal(t, 0.0, globex.Score)

	assert.Equal(t, "Acme SA", res.Answer)
	assert.False(t, res.Uncertain)
	assert.Same(t, acme, res.BestCandidate)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.Unverified)
	assert.False(t, res.Partial)
	assert.Nil(t, res.RelaxedConstraints)

	require.NotEmpty(t, res.StageHistory)
	assert.Equal(t, "stat", res.StageHistory[0].ConstraintApplied.ID, "most restrictive constraint seeds the pool")
	assert.Equal(t, []string{"Acme SA", "Globex Inc"}, res.StageHistory[0].CandidatesAfter)

	require.Contains(t, acme.Evidence, "loc")
	assert.Equal(t, model.SourceEncyclopedia, acme.Evidence["loc"].Evidence[0].Kind)
}

func TestResolve_NoSearchResults(t *testing.T) {
	res, err := Resolve(context.Background(), "q", []model.Constraint{foundedDigits, basedInFrance},
		model.DefaultConfig(), &testutil.FakeOracle{}, &testutil.FakeSearch{})
	require.NoError(t, err)

	assert.Empty(t, res.Candidates)
	require.NotNil(t, res.RejectedCandidates)
	assert.Empty(t, res.RejectedCandidates)
	assert.Nil(t, res.BestCandidate)
	assert.Equal(t, model.UncertainAnswer, res.Answer)
	assert.True(t, res.Uncertain)
	assert.Len(t, res.StageHistory, 1)
}

func TestResolve_ContractViolations(t *testing.T) {
	oracle, s := twoCandidateWorld()
	cfg := model.DefaultConfig()
	constraints := []model.Constraint{foundedDigits}

	_, err := Resolve(context.Background(), "q", constraints, cfg, nil, s)
	assert.ErrorIs(t, err, ErrOracleRequired)

	_, err = Resolve(context.Background(), "q", constraints, cfg, oracle, nil)
	assert.ErrorIs(t, err, ErrSearchRequired)

	_, err = Resolve(context.Background(), "q", nil, cfg, oracle, s)
	assert.ErrorIs(t, err, ErrNoConstraints)

	negative := basedInFrance
	negative.Weight = -1
	_, err = Resolve(context.Background(), "q", []model.Constraint{foundedDigits, negative}, cfg, oracle, s)
	assert.ErrorIs(t, err, model.ErrInvalidWeight)

	bad := model.DefaultConfig()
	bad.Checker.Variant = "bogus"
	_, err = Resolve(context.Background(), "q", constraints, bad, oracle, s)
	assert.Error(t, err)
}

func TestResolve_MalformedConstraintGetsDefaults(t *testing.T) {
	oracle, s := twoCandidateWorld()
	loose := model.Constraint{Description: "founded in a year containing 5 digits", Weight: 1}

	res, err := Resolve(context.Background(), "q", []model.Constraint{loose}, model.DefaultConfig(), oracle, s)
	require.NoError(t, err)
	require.NotEmpty(t, res.StageHistory)
	applied := res.StageHistory[0].ConstraintApplied
	assert.NotEmpty(t, applied.ID)
	assert.Equal(t, model.ConstraintStatistic, applied.Type)
	assert.Equal(t, loose.Description, applied.Value)
}

func TestResolve_AdoptsRelaxedConstraints(t *testing.T) {
	employees := model.Constraint{ID: "stat", Description: "more than 100 employees", Type: model.ConstraintStatistic, Value: "more than 100 employees", Weight: 1}

	oracle := &testutil.FakeOracle{Routes: []testutil.OracleRoute{
		{Contains: []string{"Extract the names", "between 90 and 110"}, Answer: `["A", "B", "C", "D", "E"]`},
		{Contains: []string{"Extract the names"}, Answer: `["Solo"]`},
	}}
	s := &testutil.FakeSearch{Routes: []testutil.SearchRoute{
		{Contains: []string{"between 90 and 110"}, Results: []search.Result{{Title: "Mid-size firms", Snippet: "A, B, C, D and E", URL: "https://example.com/mid"}}},
		{Contains: []string{"more than 100 employees"}, Results: []search.Result{{Title: "Large firms", Snippet: "Solo", URL: "https://example.com/large"}}},
	}}
	positive := evidence.GathererFunc(func(ctx context.Context, candidate string, c model.Constraint, round int) []model.Evidence {
		return []model.Evidence{model.NewEvidence(0.9, 0.05, 0.05, "https://example.com/"+candidate, "")}
	})

	res, err := Resolve(context.Background(), "q", []model.Constraint{employees, basedInFrance},
		model.DefaultConfig(), oracle, s, WithGatherer(positive))
	require.NoError(t, err)

	require.Len(t, res.RelaxedConstraints, 2)
	assert.Equal(t, "more than between 90 and 110 employees", res.RelaxedConstraints[0].Value)
	assert.Len(t, res.Candidates, 5)
	assert.Empty(t, res.RejectedCandidates)
	assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E"}, candidateNames(res.Candidates))
	require.Len(t, res.StageHistory, 3, "original seed stage followed by the relaxed run")
	for i, stage := range res.StageHistory {
		assert.Equal(t, i, stage.StageIndex, "stage indexes continue across runs")
		assert.Equal(t, i > 0, stage.Relaxed)
	}

	for _, c := range res.Candidates {
		assert.Contains(t, c.Evidence, "stat")
		assert.Contains(t, c.Evidence, "loc")
	}
}

func TestResolve_EvaluationTimeoutIsPartial(t *testing.T) {
	oracle, s := twoCandidateWorld()
	cfg := model.DefaultConfig()
	cfg.Relaxation.Enabled = false
	cfg.EvaluationTimeout = 50 * time.Millisecond

	blocking := evidence.GathererFunc(func(ctx context.Context, candidate string, c model.Constraint, round int) []model.Evidence {
		<-ctx.Done()
		return nil
	})

	res, err := Resolve(context.Background(), "q", []model.Constraint{foundedDigits, basedInFrance}, cfg, oracle, s, WithGatherer(blocking))
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.ElementsMatch(t, []string{"Acme SA", "Globex Inc"}, res.Unverified)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, model.UncertainAnswer, res.Answer)
}

func TestResolve_UncertainBelowAcceptScore(t *testing.T) {
	oracle, s := twoCandidateWorld()
	cfg := model.DefaultConfig()
	cfg.Relaxation.Enabled = false
	cfg.Checker.MinAcceptScore = 0.9

	res, err := Resolve(context.Background(), "q", []model.Constraint{foundedDigits, basedInFrance}, cfg, oracle, s)
	require.NoError(t, err)
	require.NotNil(t, res.BestCandidate)
	assert.Equal(t, "Acme SA", res.BestCandidate.Name)
	assert.True(t, res.Uncertain)
	assert.Equal(t, model.UncertainAnswer, res.Answer)
}

func candidateNames(cs []*model.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestAppendRelaxedStages(t *testing.T) {
	history := []model.StageResult{{StageIndex: 0}, {StageIndex: 1}}
	relaxed := []model.StageResult{{StageIndex: 0}, {StageIndex: 1, Backtracked: true}}

	got := appendRelaxedStages(history, relaxed)
	require.Len(t, got, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, []int{got[0].StageIndex, got[1].StageIndex, got[2].StageIndex, got[3].StageIndex})
	assert.False(t, got[1].Relaxed)
	assert.True(t, got[2].Relaxed)
	assert.True(t, got[3].Relaxed && got[3].Backtracked)
	assert.Equal(t, 0, relaxed[0].StageIndex, "input stages untouched")
}
