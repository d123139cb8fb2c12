package service

import "errors"

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrRecordNotFound    = errors.New("record not found")
	ErrInvalidField      = errors.New("invalid field name")

	// ErrTargetDeleted is returned when a change is enqueued for a record
	// whose DELETE is still pending. The delete wins.
	ErrTargetDeleted = errors.New("target record is pending deletion")

	ErrInvalidDocumentPath = errors.New("invalid document path")
	ErrInvalidPatch        = errors.New("invalid patch")
	ErrNoUserID            = errors.New("no user ID was given")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrTokenIsExpired      = errors.New("token is expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrStorageUnreachable  = errors.New("storage is unreachable")
)
