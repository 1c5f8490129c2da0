package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freemanity/accounts/internal/accounts/domain"
	"github.com/freemanity/accounts/internal/accounts/service"
	"github.com/freemanity/accounts/pkg/httpx"
	"github.com/freemanity/accounts/pkg/slogx"
)

type UsersHandler struct {
	UserService *service.UserService
}

// HandleList returns every user record.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.UserService.List(ctx)
	if err != nil {
		log.Error("failed to list users", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not get Users", err.Error())
		return
	}

	result := make([]map[string]any, 0, len(users))
	for _, u := range users {
		result = append(result, userJSON(u))
	}

	writeResult(w, http.StatusOK, "it works! We got all users", result)
}

// HandleGet returns a single user by username. A miss is not an error: the
// result is null inside a success envelope.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	u, err := h.UserService.Get(ctx, r.PathValue("username"))
	if err != nil {
		log.Error("failed to fetch user", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not fetch user", err.Error())
		return
	}

	var result any
	if u != nil {
		result = userJSON(*u)
	}

	writeResult(w, http.StatusOK, "Sucessfully fetched the users", result)
}

// HandleCreate registers a new user and returns the record with a fresh token.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid attribute", "Malformed JSON body")
		return
	}

	params := service.NewUser{Attributes: map[string]any{}}
	for key, value := range body {
		switch key {
		case "username":
			params.Username, _ = value.(string)
		case "password":
			params.Password, _ = value.(string)
		case "email":
			params.Email, _ = value.(string)
		default:
			params.Attributes[key] = value
		}
	}

	u, token, err := h.UserService.Create(ctx, params)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			writeFieldErrors(w, http.StatusForbidden, verr.Fields)
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Can't create the user", "Username is already taken")
		default:
			log.Error("failed to create user", "err", err)
			writeError(w, http.StatusInternalServerError, "Can't create the user", err.Error())
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"type":   "user",
			"user":   userJSON(u),
			"id":     u.ID,
			"token":  token,
			"status": http.StatusCreated,
		},
	})
}

// HandleUpdate merges the request body into an existing user. An unknown
// username is a 404; create-on-miss lives on the upsert route.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.applyUpdate(w, r, h.UserService.Update, "Sucessfully updated a user")
}

// HandleUpsert is the explicit create-if-absent variant of update.
func (h *UsersHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	h.applyUpdate(w, r, h.UserService.Upsert, "Sucessfully upserted a user")
}

func (h *UsersHandler) applyUpdate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, username string, changes map[string]any) (domain.User, error),
	message string,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	changes := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid attribute", "Malformed JSON body")
		return
	}

	u, err := op(ctx, r.PathValue("username"), changes)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "Can't update the user", "The user doesn't exist in our records")
			return
		}
		log.Error("failed to update user", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not update the user", err.Error())
		return
	}

	writeResult(w, http.StatusOK, message, userJSON(u))
}
