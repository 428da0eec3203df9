package consensus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/whalecopy/market"
)

var testReq = Request{
	Market:      market.Key{Slug: "btc-150k-2026", Outcome: "YES"},
	Title:       "Will Bitcoin hit $150k in 2026?",
	Side:        market.Buy,
	CurrentOdds: 0.55,
}

// slowEstimator never answers before its context expires.
type slowEstimator struct{ label string }

func (s slowEstimator) Name() string { return s.label }

func (s slowEstimator) Estimate(ctx context.Context, _ Request) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestEvaluateQuorumNotReached(t *testing.T) {
	t.Parallel()

	// Six backends, quorum four, only three respond.
	backends := []Estimator{
		Static{Label: "a", Value: 0.70},
		Static{Label: "b", Value: 0.72},
		Static{Label: "c", Value: 0.71},
		Static{Label: "d", Err: errors.New("boom")},
		Static{Label: "e", Err: errors.New("boom")},
		Static{Label: "f", Err: errors.New("boom")},
	}
	v := New(backends, Options{Quorum: 4}, nil)

	res, err := v.Evaluate(context.Background(), testReq)
	assert.ErrorIs(t, err, ErrInconclusive)
	assert.Equal(t, 3, res.Respondents)
}

func TestEvaluateMeanAndAgreement(t *testing.T) {
	t.Parallel()

	// Mean of {0.80, 0.82, 0.35} is 0.6566; only the first two sit within
	// the 0.10 band around it.
	backends := []Estimator{
		Static{Label: "a", Value: 0.80},
		Static{Label: "b", Value: 0.82},
		Static{Label: "c", Value: 0.35},
	}
	v := New(backends, Options{Quorum: 3, Tolerance: 0.10}, nil)

	res, err := v.Evaluate(context.Background(), testReq)
	assert.NoError(t, err)
	assert.Equal(t, 3, res.Respondents)
	assert.InDelta(t, 0.6566, res.MeanEstimate, 1e-3)
	assert.InDelta(t, 2.0/3.0, res.Agreement, 1e-9)
}

func TestEvaluateDropsSlowBackend(t *testing.T) {
	t.Parallel()

	backends := []Estimator{
		Static{Label: "a", Value: 0.60},
		Static{Label: "b", Value: 0.62},
		slowEstimator{label: "stuck"},
	}
	v := New(backends, Options{
		Quorum:         2,
		BackendTimeout: 20 * time.Millisecond,
		OverallTimeout: time.Second,
	}, nil)

	start := time.Now()
	res, err := v.Evaluate(context.Background(), testReq)
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Respondents)
	assert.InDelta(t, 0.61, res.MeanEstimate, 1e-9)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestConfirmedRequiresAgreementAndEdge(t *testing.T) {
	t.Parallel()

	v := New(nil, Options{AgreementThreshold: 0.70, EdgeMargin: 0.05}, nil)

	// Enough agreement, enough edge.
	assert.True(t, v.Confirmed(Result{MeanEstimate: 0.75, Agreement: 0.80}, 0.55))

	// High agreement at zero edge is not actionable.
	assert.False(t, v.Confirmed(Result{MeanEstimate: 0.56, Agreement: 1.0}, 0.55))

	// Edge without agreement.
	assert.False(t, v.Confirmed(Result{MeanEstimate: 0.90, Agreement: 0.50}, 0.55))
}

func TestDefaultQuorumIsMajority(t *testing.T) {
	t.Parallel()

	backends := []Estimator{
		Static{Label: "a", Value: 0.70},
		Static{Label: "b", Err: errors.New("boom")},
		Static{Label: "c", Err: errors.New("boom")},
	}
	v := New(backends, Options{}, nil)

	_, err := v.Evaluate(context.Background(), testReq)
	assert.ErrorIs(t, err, ErrInconclusive)
}

func TestParseEstimateExtractsJSON(t *testing.T) {
	t.Parallel()

	p, err := parseEstimate("Sure, here is my analysis: {\"probability\": 0.72, \"reasoning\": \"momentum\"} hope that helps")
	assert.NoError(t, err)
	assert.InDelta(t, 0.72, p, 1e-9)

	_, err = parseEstimate("no json here")
	assert.Error(t, err)

	_, err = parseEstimate("{\"probability\": 1.4}")
	assert.Error(t, err)
}
