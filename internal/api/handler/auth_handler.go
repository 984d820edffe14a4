package handler

import (
	"net/http"

	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

type userResponse struct {
	User *model.User `json:"user"`
}

type AuthHandler struct {
	authService *service.AuthService
	transport   *security.CookieTransport
	debug       bool
}

func NewAuthHandler(authService *service.AuthService, transport *security.CookieTransport, debug bool) *AuthHandler {
	return &AuthHandler{authService: authService, transport: transport, debug: debug}
}

// RegisterRoutes mounts the account endpoints. limit guards the credential
// endpoints, authenticate the session ones.
func (h *AuthHandler) RegisterRoutes(r chi.Router, authenticate, limit func(http.Handler) http.Handler) {
	r.Group(func(public chi.Router) {
		public.Use(limit)
		public.Post("/register", h.register)
		public.Post("/login", h.login)
	})
	r.Group(func(private chi.Router) {
		private.Use(authenticate)
		private.Get("/me", h.me)
		private.Post("/logout", h.logout)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithAppError(w, r, err, h.debug)
		return
	}

	res, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, r, err, h.debug)
		return
	}
	h.transport.Attach(w, res.Token)
	common.RespondWithJSON(w, http.StatusCreated, userResponse{User: res.User})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithAppError(w, r, err, h.debug)
		return
	}

	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, r, err, h.debug)
		return
	}
	h.transport.Attach(w, res.Token)
	common.RespondWithJSON(w, http.StatusOK, userResponse{User: res.User})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	var claims *security.Claims
	if identity != nil {
		claims = identity.Claims
	}
	if err := h.authService.Logout(r.Context(), claims); err != nil {
		logger.Warn("token revocation failed", "error", err)
	}
	h.transport.Clear(w)
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "Logged out"})
}
