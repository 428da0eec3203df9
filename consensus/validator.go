// Package consensus fans a trade-evaluation request out to independent
// probability estimators and aggregates their answers into one gate signal.
package consensus

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInconclusive means too few backends answered to form a consensus. It is
// a valid terminal decision outcome, not a failure of the validator.
var ErrInconclusive = errors.New("consensus: inconclusive, quorum not reached")

// Result is the aggregated view of the surviving estimates.
type Result struct {
	MeanEstimate float64
	Agreement    float64
	Respondents  int
}

// Options tune the validator. Zero values fall back to defaults.
type Options struct {
	// Quorum is the minimum number of successful estimates required.
	// Defaults to a majority of the backends.
	Quorum int
	// Tolerance is the half-width of the band around the mean inside which
	// an estimate counts as agreeing. Default 0.10.
	Tolerance float64
	// AgreementThreshold is the minimum agreement score to confirm. Default 0.70.
	AgreementThreshold float64
	// EdgeMargin is the minimum |mean - currentOdds| to confirm. Default 0.05.
	EdgeMargin float64
	// BackendTimeout bounds each estimator call. Default 10s.
	BackendTimeout time.Duration
	// OverallTimeout bounds the whole evaluation. Default 30s.
	OverallTimeout time.Duration
}

func (o *Options) applyDefaults(n int) {
	if o.Quorum <= 0 {
		o.Quorum = n/2 + 1
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 0.10
	}
	if o.AgreementThreshold <= 0 {
		o.AgreementThreshold = 0.70
	}
	if o.EdgeMargin <= 0 {
		o.EdgeMargin = 0.05
	}
	if o.BackendTimeout <= 0 {
		o.BackendTimeout = 10 * time.Second
	}
	if o.OverallTimeout <= 0 {
		o.OverallTimeout = 30 * time.Second
	}
}

// Validator queries N estimators concurrently and scores their agreement.
type Validator struct {
	backends []Estimator
	opts     Options
	log      *zap.Logger
}

func New(backends []Estimator, opts Options, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	opts.applyDefaults(len(backends))
	return &Validator{backends: backends, opts: opts, log: log}
}

// Evaluate fans the request out to every backend with a per-backend timeout.
// A slow or failing backend is dropped from aggregation without failing the
// others. Returns ErrInconclusive when fewer than quorum backends answer.
func (v *Validator) Evaluate(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, v.opts.OverallTimeout)
	defer cancel()

	estimates := make([]float64, len(v.backends))
	ok := make([]bool, len(v.backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, backend := range v.backends {
		i, backend := i, backend
		g.Go(func() error {
			bctx, bcancel := context.WithTimeout(gctx, v.opts.BackendTimeout)
			defer bcancel()

			est, err := backend.Estimate(bctx, req)
			if err != nil {
				// Recovered locally: the backend is excluded, the
				// evaluation continues.
				v.log.Warn("estimator failed",
					zap.String("backend", backend.Name()),
					zap.String("market", req.Market.String()),
					zap.Error(err),
				)
				return nil
			}
			estimates[i] = est
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	survivors := make([]float64, 0, len(estimates))
	for i := range estimates {
		if ok[i] {
			survivors = append(survivors, estimates[i])
		}
	}

	if len(survivors) < v.opts.Quorum {
		v.log.Info("consensus inconclusive",
			zap.String("market", req.Market.String()),
			zap.Int("respondents", len(survivors)),
			zap.Int("quorum", v.opts.Quorum),
		)
		return Result{Respondents: len(survivors)}, ErrInconclusive
	}

	var sum float64
	for _, e := range survivors {
		sum += e
	}
	mean := sum / float64(len(survivors))

	agreeing := 0
	for _, e := range survivors {
		if math.Abs(e-mean) <= v.opts.Tolerance {
			agreeing++
		}
	}

	res := Result{
		MeanEstimate: mean,
		Agreement:    float64(agreeing) / float64(len(survivors)),
		Respondents:  len(survivors),
	}
	v.log.Debug("consensus evaluated",
		zap.String("market", req.Market.String()),
		zap.Float64("mean", res.MeanEstimate),
		zap.Float64("agreement", res.Agreement),
		zap.Int("respondents", res.Respondents),
	)
	return res, nil
}

// Confirmed reports whether the result clears both gates: enough agreement
// among backends AND a meaningful edge over the current market odds. High
// agreement at zero edge is not actionable.
func (v *Validator) Confirmed(res Result, currentOdds float64) bool {
	if res.Agreement < v.opts.AgreementThreshold {
		return false
	}
	return math.Abs(res.MeanEstimate-currentOdds) >= v.opts.EdgeMargin
}
