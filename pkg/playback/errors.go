// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package playback

import "errors"

// Sentinel errors for the playback package.
var (
	// ErrNoSession indicates an operation that needs a loaded session.
	ErrNoSession = errors.New("no session loaded")

	// ErrStepOutOfRange indicates a step index outside [0, MaxIndex].
	// Out-of-range requests are rejected, not clamped, so callers can
	// detect indexing bugs.
	ErrStepOutOfRange = errors.New("step index out of range")

	// ErrSessionSuperseded indicates a StartSession whose response
	// arrived after a newer session replaced it. The response was
	// discarded.
	ErrSessionSuperseded = errors.New("session superseded")

	// ErrNoStates indicates the backend reported success but returned
	// an empty state sequence.
	ErrNoStates = errors.New("backend returned no states")
)
