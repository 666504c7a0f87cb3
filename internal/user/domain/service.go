package domain

import "context"

// Service authenticates callers and resolves which linked account an
// operation refers to.
type Service interface {
	// Authenticate maps an opaque API token to its user. Returns
	// ErrInvalidToken when the token matches no user.
	Authenticate(ctx context.Context, token string) (*User, error)

	// ResolveAccount picks the account an operation acts on. When name is
	// non-empty the account must belong to the user (ErrAccountNotLinked
	// otherwise). When name is empty the account is inferred only if the
	// user has exactly one linked account; ErrAccountAmbiguous otherwise.
	ResolveAccount(ctx context.Context, u *User, name string) (*Account, error)

	GetByID(ctx context.Context, id string) (*User, error)
}
