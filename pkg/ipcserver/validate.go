// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"fmt"
	"time"

	"github.com/hyperfan/hyperfand/pkg/model"
)

const (
	minECRangeCount = 1
	maxECRangeCount = 64
)

// validatePath runs a client-supplied path through the full pathguard suite
// before any command that names one is dispatched.
func (s *Server) validatePath(path string) (string, error) {
	valid, err := s.guard.Validate(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return valid, nil
}

// validatePWMValue enforces the u8 range (spec.md §4.7); JSON numbers
// decode as float64, so out-of-range and non-integral values must both be
// rejected explicitly.
func validatePWMValue(v float64) (uint8, error) {
	if v != float64(int64(v)) || v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: pwm value %v out of [0,255]", ErrValidation, v)
	}
	return uint8(v), nil
}

// validatePercent enforces percent ∈ [0,100].
func validatePercent(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: percent %v out of [0,100]", ErrValidation, v)
	}
	return nil
}

// validateOverrideTTL enforces TTL ∈ [50,30000] ms and returns it as a
// model.Override-ready duration.
func validateOverrideTTL(ms int) (time.Duration, error) {
	d := time.Duration(ms) * time.Millisecond
	if d < model.MinOverrideTTL || d > model.MaxOverrideTTL {
		return 0, fmt.Errorf("%w: ttl %dms out of [%d,%d]ms", ErrValidation, ms,
			model.MinOverrideTTL.Milliseconds(), model.MaxOverrideTTL.Milliseconds())
	}
	return d, nil
}

// validateECRangeCount enforces EC register-range count ∈ [1,64].
func validateECRangeCount(n int) error {
	if n < minECRangeCount || n > maxECRangeCount {
		return fmt.Errorf("%w: ec range count %d out of [%d,%d]", ErrValidation, n, minECRangeCount, maxECRangeCount)
	}
	return nil
}

// validateRateLimit enforces the additional range check for rate-limit
// change requests (spec.md §4.7).
func validateRateLimit(n int) error {
	if n < MinRateLimitPerWindow || n > MaxRateLimitPerWindow {
		return fmt.Errorf("%w: rate limit %d out of [%d,%d]", ErrValidation, n, MinRateLimitPerWindow, MaxRateLimitPerWindow)
	}
	return nil
}
