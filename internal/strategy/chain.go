package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/izabele-1801/agiliza-backend/internal/assemble"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// Attempt outcomes.
const (
	ResultOK        = "ok"
	ResultNoData    = "no_data"
	ResultEmpty     = "empty" // items found, all rejected by the assembler
	ResultMalformed = "malformed"
	ResultStopped   = "unsupported"
)

// Step pairs a strategy with the assembler that enforces its strictness.
type Step struct {
	Strategy  Strategy
	Assembler *assemble.Assembler
}

// Attempt records one strategy run inside a chain.
type Attempt struct {
	Strategy  string         `json:"strategy"`
	Result    string         `json:"result"`
	Items     int            `json:"items"`
	Records   int            `json:"records"`
	Stats     assemble.Stats `json:"stats"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Err       error          `json:"-"`
}

// Result is the outcome of a chain run.
type Result struct {
	Strategy string                   `json:"strategy"`
	Records  []entity.CanonicalRecord `json:"records"`
	Stats    assemble.Stats           `json:"stats"`
	Attempts []Attempt                `json:"attempts"`
}

// Chain tries its steps in order until one assembles at least one record.
type Chain struct {
	steps     []Step
	logger    *slog.Logger
	onAttempt func(Attempt)
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the chain logger.
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a callback run after every attempt.
func WithObserver(fn func(Attempt)) ChainOption {
	return func(c *Chain) { c.onAttempt = fn }
}

// NewChain builds a chain over steps.
func NewChain(steps []Step, opts ...ChainOption) *Chain {
	c := &Chain{steps: steps, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names lists the strategy names in run order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.steps))
	for i, s := range c.steps {
		out[i] = s.Strategy.Name()
	}
	return out
}

// Run executes the chain. It returns the first non-empty result. When every
// step comes back empty the error is a NoData failure, or the last Malformed
// failure if any step could not decode its input. An Unsupported failure
// stops the chain at once.
func (c *Chain) Run(ctx context.Context, src *Source) (Result, error) {
	var res Result
	var lastMalformed error

	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		name := step.Strategy.Name()
		start := time.Now()
		items, err := step.Strategy.Extract(ctx, src)
		att := Attempt{Strategy: name, Items: len(items), Err: err}

		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			switch ReasonOf(err) {
			case NoData:
				att.Result = ResultNoData
			case Unsupported:
				att.Result = ResultStopped
			default:
				att.Result = ResultMalformed
				lastMalformed = err
			}
		case len(items) == 0:
			att.Result = ResultNoData
		default:
			records, stats := step.Assembler.AssembleAll(items)
			att.Records, att.Stats = len(records), stats
			if len(records) > 0 {
				att.Result = ResultOK
				res.Strategy, res.Records, res.Stats = name, records, stats
			} else {
				att.Result = ResultEmpty
			}
		}
		att.ElapsedMS = time.Since(start).Milliseconds()
		res.Attempts = append(res.Attempts, att)
		c.observe(att)

		if att.Result == ResultOK {
			c.logger.Debug("pipeline.strategy.ok",
				"file", src.Filename, "strategy", name, "records", att.Records, "elapsed_ms", att.ElapsedMS)
			return res, nil
		}
		c.logger.Debug("pipeline.strategy."+att.Result,
			"file", src.Filename, "strategy", name, "items", att.Items, "error", err)
		if att.Result == ResultStopped {
			return res, err
		}
	}

	if lastMalformed != nil {
		return res, lastMalformed
	}
	return res, NoDataf("chain", "no strategy extracted records from %s", src.Filename)
}

func (c *Chain) observe(a Attempt) {
	if c.onAttempt != nil {
		c.onAttempt(a)
	}
}
