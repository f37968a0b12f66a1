package engine

import "errors"

var (
	// ErrRunComplete is returned by AdvanceTick once every tick has been advanced.
	ErrRunComplete = errors.New("engine: run already complete")
	// ErrRunIncomplete is returned by Summarize before the last tick.
	ErrRunIncomplete = errors.New("engine: run not complete")
	// ErrEmptySample is returned by Percentile for an empty input.
	ErrEmptySample = errors.New("engine: percentile of empty sample")
)
