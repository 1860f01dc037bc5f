package dispatcher

import "context"

//go:generate mockgen -destination ../../mocks/session.go -package mocks -mock_names Session=VehicleSession . Session

// Session supplies the account credentials injected into every vehicle request. It is owned by the
// account that created the vehicle and shared between all of that account's vehicles.
type Session interface {
	// Username returns the account login.
	Username() string

	// AccessToken returns the current access token.
	AccessToken() string

	// RefreshIfNeeded renews the access token if it has expired. Implementations must be safe to
	// call concurrently.
	RefreshIfNeeded(ctx context.Context) error
}
