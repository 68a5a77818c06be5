package domain

import "time"

// Method records how an identity was established.
type Method string

const (
	MethodPassword Method = "password"
	MethodFirebase Method = "firebase"
)

// Identity is an authenticated admin. A request without one is anonymous.
type Identity struct {
	Username        string    `json:"username"`
	Method          Method    `json:"method"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the identity's lifetime has passed at now.
func (i Identity) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
