// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Collection is the logical name of a group of user-owned records.
type Collection string

const (
	// CollectionTasks holds the user's tasks.
	CollectionTasks Collection = "tasks"
	// CollectionGoals holds the user's goals.
	CollectionGoals Collection = "goals"
	// CollectionUser addresses the single user profile document whose numeric
	// counters (score, streak) are changed with increments.
	CollectionUser Collection = "user"
)

// Collections lists every collection known to the sync core.
var Collections = []Collection{CollectionTasks, CollectionGoals, CollectionUser}

// ErrInvalidDocPath is returned by [ParseDocPath] for malformed paths.
var ErrInvalidDocPath = errors.New("invalid document path")

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

func (c Collection) String() string {
	return string(c)
}

// DocPath identifies a document (or, with an empty DocID, a collection) in the
// remote document store. Every path is scoped to its owner.
type DocPath struct {
	UserID     int64      `json:"user_id"`
	Collection Collection `json:"collection"`
	DocID      string     `json:"id,omitempty"`
}

// NewDocPath builds the path of a single document. The user collection has
// exactly one document per user, so its id is always the user id.
func NewDocPath(userID int64, collection Collection, docID string) DocPath {
	if collection == CollectionUser {
		docID = strconv.FormatInt(userID, 10)
	}
	return DocPath{UserID: userID, Collection: collection, DocID: docID}
}

// NewCollectionPath builds the path of a whole collection.
func NewCollectionPath(userID int64, collection Collection) DocPath {
	return DocPath{UserID: userID, Collection: collection}
}

// IsCollection reports whether p addresses a collection rather than a document.
func (p DocPath) IsCollection() bool {
	return p.DocID == "" && p.Collection != CollectionUser
}

// String renders p as users/{uid}/{collection}/{id}. The profile document is
// rendered as users/{uid}.
func (p DocPath) String() string {
	if p.Collection == CollectionUser {
		return fmt.Sprintf("users/%d", p.UserID)
	}
	if p.DocID == "" {
		return fmt.Sprintf("users/%d/%s", p.UserID, p.Collection)
	}
	return fmt.Sprintf("users/%d/%s/%s", p.UserID, p.Collection, p.DocID)
}

// ParseDocPath is the inverse of [DocPath.String].
func ParseDocPath(raw string) (DocPath, error) {
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	if len(parts) < 2 || parts[0] != "users" {
		return DocPath{}, fmt.Errorf("%w: %q", ErrInvalidDocPath, raw)
	}

	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || userID <= 0 {
		return DocPath{}, fmt.Errorf("%w: bad user id in %q", ErrInvalidDocPath, raw)
	}

	switch len(parts) {
	case 2:
		return NewDocPath(userID, CollectionUser, ""), nil
	case 3, 4:
		collection := Collection(parts[2])
		if !collection.Valid() || collection == CollectionUser {
			return DocPath{}, fmt.Errorf("%w: unknown collection in %q", ErrInvalidDocPath, raw)
		}
		path := NewCollectionPath(userID, collection)
		if len(parts) == 4 {
			if parts[3] == "" {
				return DocPath{}, fmt.Errorf("%w: empty id in %q", ErrInvalidDocPath, raw)
			}
			path.DocID = parts[3]
		}
		return path, nil
	default:
		return DocPath{}, fmt.Errorf("%w: %q", ErrInvalidDocPath, raw)
	}
}
