// Package strategy defines the extraction strategy contract and the ordered
// fallback chain that runs strategies until one yields records.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// Reason classifies why a strategy produced nothing.
type Reason string

const (
	// NoData: nothing recognizable, the next strategy should run.
	NoData Reason = "no_data"
	// Unsupported: the content can never be handled, stop the chain.
	Unsupported Reason = "unsupported"
	// Malformed: the payload could not be decoded by this strategy.
	Malformed Reason = "malformed"
)

// Failure is the structured error a strategy returns instead of records.
type Failure struct {
	Strategy string
	Reason   Reason
	Detail   string
	Err      error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %s", f.Strategy, f.Reason)
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the engine sentinels by reason.
func (f *Failure) Is(target error) bool {
	switch target {
	case common.ErrNoData:
		return f.Reason == NoData
	case common.ErrUnsupportedFormat:
		return f.Reason == Unsupported
	case common.ErrMalformed:
		return f.Reason == Malformed
	}
	return false
}

// NoDataf builds a NoData failure.
func NoDataf(strategy, format string, args ...any) *Failure {
	return &Failure{Strategy: strategy, Reason: NoData, Detail: fmt.Sprintf(format, args...)}
}

// MalformedErr builds a Malformed failure around a decode error.
func MalformedErr(strategy string, err error) *Failure {
	return &Failure{Strategy: strategy, Reason: Malformed, Err: err}
}

// UnsupportedErr builds an Unsupported failure.
func UnsupportedErr(strategy, detail string) *Failure {
	return &Failure{Strategy: strategy, Reason: Unsupported, Detail: detail}
}

// ReasonOf reports the failure reason carried by err. Errors that are not a
// Failure report Malformed.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return Malformed
}

// Source is the decoded view of one document. Strategies read the fields
// they understand and report NoData when theirs is empty.
type Source struct {
	Filename string
	Grid     [][]string    // tabular cells, row-major
	Lines    []string      // text lines in reading order
	Pages    []entity.Page // positioned words, one entry per page or image
}

// Strategy extracts intermediate line items from a Source. Implementations
// hold no per-call state.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, src *Source) ([]entity.LineItem, error)
}

// Func adapts a function to Strategy.
type Func struct {
	ID string
	Fn func(ctx context.Context, src *Source) ([]entity.LineItem, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Extract(ctx context.Context, src *Source) ([]entity.LineItem, error) {
	return f.Fn(ctx, src)
}
