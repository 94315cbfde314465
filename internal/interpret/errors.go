// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package interpret

import (
	"fmt"
	"time"
)

// ValidationError reports malformed fingerprint inputs (missing identifiers,
// unknown chart type). It fails the request before any cache or limiter
// interaction.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// RateLimitError is the recoverable rejection returned when the admission
// controller denies a request. Remaining is always zero at this point; the
// caller should surface ResetAt so clients can back off intelligently.
type RateLimitError struct {
	Tier    Tier
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for tier %q, resets at %s",
		e.Tier, e.ResetAt.Format(time.RFC3339))
}

// GenerationError wraps a failed AI generation call. The cache is left
// untouched — failures are never cached.
type GenerationError struct {
	Fingerprint string
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("interpretation generation failed (fingerprint %s): %v",
		e.Fingerprint, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
