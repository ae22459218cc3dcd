package ports

import "time"

// TokenClaims are the validated contents of an admin token.
type TokenClaims struct {
	Subject string
}

// TokenService issues and validates admin API tokens.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(token string) (*TokenClaims, error)
}
