package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/teamroom/internal/service"
	"github.com/yakoovad/teamroom/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) Register(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Email          string `json:"email" validate:"required,email"`
		FirstName      string `json:"first_name" validate:"required"`
		LastName       string `json:"last_name" validate:"required"`
		PatronymicName string `json:"patronymic_name"`
		Password       string `json:"password" validate:"required,min=8"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("registering user", zap.String("email", req.Email))

	email, err := h.auth.Register(e.Request().Context(), &service.RegisterInput{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PatronymicName: req.PatronymicName,
		Password:       req.Password,
	})
	if err != nil {
		l.Error("failed to register user", zap.String("email", req.Email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, echo.Map{"email": email})
}

// Login accepts the OAuth2 password form: username holds the email.
func (h *Handler) Login(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	email := e.FormValue("username")
	password := e.FormValue("password")

	if email == "" || password == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "username and password are required"))
	}

	pair, err := h.auth.Login(e.Request().Context(), email, password)
	if err != nil {
		l.Warn("login failed", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, pair)
}

func (h *Handler) RefreshToken(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	accessToken, err := h.auth.Refresh(e.Request().Context(), req.RefreshToken)
	if err != nil {
		l.Warn("token refresh failed", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"access_token": accessToken})
}

func (h *Handler) Logout(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	if err := h.auth.Logout(e.Request().Context(), req.RefreshToken); err != nil {
		l.Warn("logout failed", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"detail": "logged out"})
}

func (h *Handler) DeleteAccount(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID := UserIDFromContext(e)

	if err := h.auth.Deactivate(e.Request().Context(), userID); err != nil {
		l.Error("failed to delete account", zap.String("user_id", userID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"detail": "account deleted"})
}

func (h *Handler) UserInfo(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID := UserIDFromContext(e)

	user, err := h.auth.UserInfo(e.Request().Context(), userID)
	if err != nil {
		l.Error("failed to get user info", zap.String("user_id", userID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{
		"email":           user.Email,
		"first_name":      user.FirstName,
		"last_name":       user.LastName,
		"patronymic_name": user.PatronymicName,
	})
}
