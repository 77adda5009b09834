package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AccountHandler exposes the caller's own account.
type AccountHandler struct {
	users *service.UserService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(userService *service.UserService) *AccountHandler {
	return &AccountHandler{users: userService}
}

// Balance handles GET /api/v1/account/balance.
func (h *AccountHandler) Balance(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewForbidden(auth.MsgMissingToken)
	}
	account, err := h.users.Balance(c.UserContext(), subject)
	if err != nil {
		return err
	}
	return c.JSON(dto.BalanceResponse{Balance: account.Balance})
}
