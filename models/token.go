package models

import "github.com/golang-jwt/jwt/v5"

// Token is a parsed or freshly issued bearer token. Its subject is the id of
// the user whose documents the bearer may read and write.
type Token struct {
	*jwt.Token `json:"-"`
	jwt.RegisteredClaims

	// SignedString is the compact form sent in the Authorization header.
	SignedString string `json:"-"`

	// UserID is the subject parsed as an int64.
	UserID int64 `json:"-"`
}

// String returns the compact signed form.
func (t *Token) String() string {
	return t.SignedString
}
