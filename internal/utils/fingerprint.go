// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex-encoded BLAKE2b-256 digest of the JSON encoding
// of v.
//
// encoding/json writes map keys in sorted order, so two values with the same
// content always produce the same fingerprint regardless of map iteration
// order. Slices keep their order; callers that compare unordered sets must
// sort them first.
//
// Example usage:
//
//	fp, err := utils.Fingerprint(snapshot.Documents)
func Fingerprint(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error encoding value for fingerprint: %w", err)
	}

	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
