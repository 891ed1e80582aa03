package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/service"
)

// UserManager is implemented by service.UserAdmin.
type UserManager interface {
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, actor service.Actor, in service.CreateUserInput) (model.User, error)
	Update(ctx context.Context, actor service.Actor, targetID uint64, in service.UpdateUserInput) (model.User, error)
	Delete(ctx context.Context, actor service.Actor, targetID uint64) error
	Unlock(ctx context.Context, actor service.Actor, targetID uint64) error
}

// AdminUserHandler serves /api/admin/users.
type AdminUserHandler struct {
	users     UserManager
	threshold uint32
}

// NewAdminUserHandler takes the lockout threshold so listings can flag
// locked accounts.
func NewAdminUserHandler(users UserManager, threshold uint32) *AdminUserHandler {
	return &AdminUserHandler{users: users, threshold: threshold}
}

type adminUserView struct {
	userView
	Locked bool `json:"locked"`
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=artist staff"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
}

func (h *AdminUserHandler) view(u model.User) adminUserView {
	return adminUserView{userView: toUserView(u), Locked: h.threshold > 0 && u.FailedAttempts >= h.threshold}
}

// List handles GET /api/admin/users.
func (h *AdminUserHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		return err
	}
	out := make([]adminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, h.view(u))
	}
	return respond(c, http.StatusOK, out)
}

// Create handles POST /api/admin/users.
func (h *AdminUserHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.users.Create(ctx, a, service.CreateUserInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role,
	})
	if err != nil {
		return err
	}
	return respondMsg(c, http.StatusCreated, h.view(u), "user created")
}

// Update handles PATCH /api/admin/users/:id.
func (h *AdminUserHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return model.ErrInvalidInput
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.users.Update(ctx, a, id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return respondMsg(c, http.StatusOK, h.view(u), "user updated")
}

// Delete handles DELETE /api/admin/users/:id.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.users.Delete(ctx, a, id); err != nil {
		return err
	}
	return respondMsg(c, http.StatusOK, nil, "user deleted")
}

// Unlock handles POST /api/admin/users/:id/unlock.
func (h *AdminUserHandler) Unlock(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.users.Unlock(ctx, a, id); err != nil {
		return err
	}
	return respondMsg(c, http.StatusOK, nil, "account unlocked")
}
