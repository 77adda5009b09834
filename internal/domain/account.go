package domain

import "time"

// Initial balance bounds for a new account, half-open: [Min, Max).
const (
	InitialBalanceMin = 1.0
	InitialBalanceMax = 10000.0
)

// Account is the financial record bound to exactly one user.
type Account struct {
	ID        string
	UserID    string
	Balance   float64
	CreatedAt time.Time
}
