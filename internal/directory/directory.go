// Package directory abstracts the voice server's account store. The
// registration flows only ever talk to the Directory interface; the concrete
// adapter lives with whatever server connection the deployment uses.
package directory

import "context"

type AccountType string

const (
	AccountUser  AccountType = "user"
	AccountAdmin AccountType = "admin"
)

// NewAccount carries everything needed to create a server account.
type NewAccount struct {
	Username string
	Password string
	Nickname string
	Type     AccountType
	Rights   Rights
}

// Account is a directory listing entry.
type Account struct {
	Username string
	Type     AccountType
}

// Directory is the account store of the running voice server.
//
// Exists must distinguish "username free" from "could not check": callers keep
// the registrant on the same step when the check itself fails.
type Directory interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, account NewAccount) error
	Remove(ctx context.Context, username string) error
	List(ctx context.Context) ([]Account, error)
	Broadcast(ctx context.Context, message string) error
}
