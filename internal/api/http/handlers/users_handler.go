package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// MsgUserCreated confirms a signup.
const MsgUserCreated = "User created successfully!"

// UsersHandler exposes the user endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Signup handles POST /api/v1/user/signup.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return service.InvalidSignup()
	}

	res, err := h.auth.Signup(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.SignupResponse{Message: MsgUserCreated, Token: res.Token})
}

// Signin handles POST /api/v1/user/signin.
func (h *UsersHandler) Signin(c *fiber.Ctx) error {
	var req service.SigninInput
	if err := c.BodyParser(&req); err != nil {
		return service.InvalidSignin()
	}

	token, err := h.auth.Signin(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(dto.SigninResponse{Token: token})
}

// Update handles PUT /api/v1/user. The target is always the token's subject.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewForbidden(auth.MsgMissingToken)
	}
	var req service.UpdateInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return service.InvalidUpdate()
		}
	}

	if err := h.users.Update(c.UserContext(), subject, req); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: service.MsgUserUpdated})
}

// Bulk handles GET /api/v1/user/bulk?filter=. Unauthenticated by design.
func (h *UsersHandler) Bulk(c *fiber.Ctx) error {
	users, err := h.users.Search(c.UserContext(), c.Query("filter"))
	if err != nil {
		return err
	}
	return c.JSON(dto.UsersResponse{Users: users})
}
