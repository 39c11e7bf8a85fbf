package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"user-service/models"
	"user-service/service"
)

// MessageUserDeleted is the plain text body of a successful delete.
const MessageUserDeleted = "User deleted successfully"

// UserService is the subset of service.UserService the handlers drive.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, candidate *models.User) (*models.User, error)
	Update(ctx context.Context, id uint, changes service.UserChanges) (*models.User, error)
	Delete(ctx context.Context, id uint) error
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ToUserDTOs(users))
}

func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ToUserDTO(user))
}

func (h *UserHandler) CreateUser(c echo.Context) error {
	dto, err := bindUser(c)
	if err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), models.ToUser(dto))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.ToUserDTO(user))
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	dto, err := bindUser(c)
	if err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), id, service.UserChanges{
		Name:  dto.Name,
		Email: dto.Email,
		Age:   dto.Age,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ToUserDTO(user))
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.String(http.StatusOK, MessageUserDeleted)
}

// parseID accepts ids in 1..MaxInt64, the range of the bigint primary key.
func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 63)
	if err != nil || id == 0 {
		return 0, ValidationErrors{{Field: "id", Message: "ID should be a positive integer"}}
	}
	return uint(id), nil
}

// bindUser decodes and validates the request body. Path parameters are not
// bound, and any id in the body is ignored by models.ToUser.
func bindUser(c echo.Context) (models.UserDTO, error) {
	var dto models.UserDTO
	if err := (&echo.DefaultBinder{}).BindBody(c, &dto); err != nil {
		return dto, echo.NewHTTPError(http.StatusBadRequest, MessageInvalidBody).SetInternal(err)
	}
	if errs := ValidateUser(dto); errs != nil {
		return dto, errs
	}
	return dto, nil
}
