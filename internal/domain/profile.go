package domain

// Profile is the identity a provider vouches for after a completed handshake.
// It is never persisted.
type Profile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
