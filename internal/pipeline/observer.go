package pipeline

import (
	"time"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// Observer receives processing events, typically to feed metrics.
type Observer interface {
	FileProcessed(kind constants.Kind, outcome string, elapsed time.Duration)
	StrategyAttempt(a strategy.Attempt)
	RecordsEmitted(strategy string, n int)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) FileProcessed(constants.Kind, string, time.Duration) {}
func (NopObserver) StrategyAttempt(strategy.Attempt)                    {}
func (NopObserver) RecordsEmitted(string, int)                          {}
