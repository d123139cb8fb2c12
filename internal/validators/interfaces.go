// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks document server input before it reaches storage:
// owner-scoped paths, document bodies, patches with increments and batches.
package validators

import "context"

// Validator checks a value. fields narrows the checks for values that are
// validated differently depending on the operation, e.g. a path with or
// without a document id.
type Validator interface {
	Validate(ctx context.Context, value any, fields ...string) error
}
