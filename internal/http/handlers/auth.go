package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-service-template/internal/http/middleware"
	"github.com/pribylovaa/go-service-template/internal/http/response"
	"github.com/pribylovaa/go-service-template/internal/models"
)

// Register — POST /v1/user/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		response.WriteKind(w, r, response.KindValidationFailed)
		return
	}

	user, err := h.Service.RegisterUser(r.Context(), in.Username, in.Email, in.Password, in.PasswordConfirm)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.WriteSuccess(w, http.StatusCreated, "User", user.Public())
}

// Login — POST /v1/user/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		response.WriteKind(w, r, response.KindValidationFailed)
		return
	}

	session, err := h.Service.LoginUser(r.Context(), in.UsernameOrEmail, in.Password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	out := models.SessionResponse{
		ID:        session.User.ID.String(),
		Username:  session.User.Username,
		Email:     session.User.Email,
		Token:     session.AccessToken,
		ExpiresIn: session.ExpiresIn,
	}

	response.WriteSuccess(w, http.StatusOK, "Session", out)
}

// Me — GET /v1/user/me (защищённый маршрут).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		// Маршрут зарегистрирован без RequireAuth — программная ошибка сборки роутера.
		response.WriteKind(w, r, response.KindInternal)
		return
	}

	user, err := h.Service.UserByID(r.Context(), userID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.WriteSuccess(w, http.StatusOK, "User", user.Public())
}
