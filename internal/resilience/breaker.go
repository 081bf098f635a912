// Package resilience isolates failing scoring checks behind per-section
// circuit breakers.
package resilience

import (
	stderrors "errors"
	"fmt"

	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/types"

	"github.com/sony/gobreaker/v2"
)

// CheckBreakers holds one circuit breaker per report section. A nil
// *CheckBreakers runs every check unguarded.
type CheckBreakers struct {
	breakers map[types.SectionKey]*gobreaker.CircuitBreaker[types.Section]
}

// NewCheckBreakers creates a breaker for every section key. It returns nil
// when breakers are disabled.
func NewCheckBreakers(cfg config.BreakerConfig, logger *errors.Logger) *CheckBreakers {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.Discard()
	}

	cb := &CheckBreakers{
		breakers: make(map[types.SectionKey]*gobreaker.CircuitBreaker[types.Section], len(types.SectionKeys)),
	}
	for _, key := range types.SectionKeys {
		cb.breakers[key] = gobreaker.NewCircuitBreaker[types.Section](settingsFor(key, cfg, logger))
	}
	return cb
}

func settingsFor(key types.SectionKey, cfg config.BreakerConfig, logger *errors.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        fmt.Sprintf("check-%s", key),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"section", string(key),
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}
}

// Execute runs fn behind the breaker of section. A rejected call returns a
// CHECK_UNAVAILABLE check error without running fn.
func (cb *CheckBreakers) Execute(section types.SectionKey, fn func() (types.Section, error)) (types.Section, error) {
	if cb == nil {
		return fn()
	}
	breaker, ok := cb.breakers[section]
	if !ok {
		return fn()
	}

	sec, err := breaker.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.NewCheckError(errors.ErrCodeCheckUnavailable,
			fmt.Sprintf("check %s is temporarily disabled", section), err).
			WithContext("section", string(section)).
			WithContext("breaker_state", breaker.State().String())
	}
	return sec, err
}

// State returns the breaker state of section, "disabled" when breakers are
// off.
func (cb *CheckBreakers) State(section types.SectionKey) string {
	if cb == nil {
		return "disabled"
	}
	breaker, ok := cb.breakers[section]
	if !ok {
		return "disabled"
	}
	return breaker.State().String()
}

// Stats returns circuit breaker statistics keyed by section.
func (cb *CheckBreakers) Stats() map[string]any {
	if cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	sections := make(map[string]any, len(cb.breakers))
	for _, key := range types.SectionKeys {
		breaker := cb.breakers[key]
		sections[string(key)] = map[string]any{
			"name":   breaker.Name(),
			"state":  breaker.State().String(),
			"counts": breaker.Counts(),
		}
	}
	return map[string]any{
		"enabled":  true,
		"sections": sections,
	}
}

// Healthy reports whether every breaker is closed.
func (cb *CheckBreakers) Healthy() bool {
	return len(cb.OpenSections()) == 0
}

// OpenSections lists sections whose breaker is not closed, in report order.
func (cb *CheckBreakers) OpenSections() []string {
	if cb == nil {
		return nil
	}
	var open []string
	for _, key := range types.SectionKeys {
		if cb.breakers[key].State() != gobreaker.StateClosed {
			open = append(open, string(key))
		}
	}
	return open
}
