package auth

import "fmt"

var (
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrMissingSubject       = fmt.Errorf("token has no subject")
	ErrInvalidSigningMethod = fmt.Errorf("invalid signing method")
)
