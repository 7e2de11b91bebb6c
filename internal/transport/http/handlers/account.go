package http_handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/sso-service/internal/domain"
	"github.com/baechuer/sso-service/internal/infrastructure/security"
	"github.com/baechuer/sso-service/internal/transport/http/dto"
	"github.com/baechuer/sso-service/internal/transport/http/middleware"
	"github.com/baechuer/sso-service/internal/transport/http/response"
)

type UserReader interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

type AccountHandler struct {
	users         UserReader
	secureCookies bool
}

func NewAccountHandler(users UserReader, secureCookies bool) *AccountHandler {
	return &AccountHandler{users: users, secureCookies: secureCookies}
}

// Me handles GET /auth/me. The user is re-read so a disabled account loses access immediately.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrSessionMissing())
		return
	}

	u, err := h.users.FindByID(r.Context(), uid)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			response.WriteError(w, r, domain.ErrSessionInvalid())
			return
		}
		response.WriteError(w, r, err)
		return
	}
	if u.Disabled {
		response.WriteError(w, r, domain.ErrAccountDisabled())
		return
	}

	response.OK(w, dto.NewUserView(u))
}

// Signout handles POST /auth/signout
func (h *AccountHandler) Signout(w http.ResponseWriter, r *http.Request) {
	security.ClearSession(w, h.secureCookies)
	response.NoContent(w)
}
