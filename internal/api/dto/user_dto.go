package dto

import "github.com/spec-kit/account-service/internal/domain"

// SignupResponse is returned by POST /user/signup.
type SignupResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// SigninResponse is returned by POST /user/signin.
type SigninResponse struct {
	Token string `json:"token"`
}

// MessageResponse carries a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// UsersResponse is returned by GET /user/bulk.
type UsersResponse struct {
	Users []domain.UserProjection `json:"users"`
}

// BalanceResponse is returned by GET /account/balance.
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
