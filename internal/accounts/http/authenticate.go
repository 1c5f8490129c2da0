package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freemanity/accounts/internal/accounts/service"
	"github.com/freemanity/accounts/pkg/httpx"
	"github.com/freemanity/accounts/pkg/slogx"
)

type AuthenticateHandler struct {
	UserService *service.UserService
}

// ServeHTTP checks a username/password pair and issues a token on success.
func (h *AuthenticateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid attribute", "Malformed JSON body")
		return
	}

	u, token, err := h.UserService.Authenticate(ctx, body.Username, body.Password)
	if err != nil {
		var verr *service.ValidationError
		var cerr *service.CredentialError
		switch {
		case errors.As(err, &verr):
			writeFieldErrors(w, http.StatusForbidden, verr.Fields)
		case errors.As(err, &cerr):
			writeFieldErrors(w, http.StatusBadRequest, cerr.Fields)
		default:
			log.Error("failed to authenticate user", "err", err)
			writeError(w, http.StatusInternalServerError, "Can't login user", err.Error())
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"type": "users",
			"id":   u.ID,
			"attributes": map[string]any{
				"email": u.Email,
			},
			"token":  token,
			"status": http.StatusCreated,
		},
	})
}
