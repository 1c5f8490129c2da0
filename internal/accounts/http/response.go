package http

import (
	"net/http"

	"github.com/freemanity/accounts/internal/accounts/domain"
	"github.com/freemanity/accounts/internal/accounts/service"
	"github.com/freemanity/accounts/pkg/httpx"
)

// resultResponse is the envelope for read and update operations. Status
// mirrors the HTTP status code so clients that only inspect the body still
// see the outcome.
type resultResponse struct {
	Message string `json:"message"`
	Result  any    `json:"result"`
	Status  int    `json:"status"`
}

// errorResponse is the envelope for every failure path.
type errorResponse struct {
	Errors []service.FieldError `json:"errors"`
}

func writeResult(w http.ResponseWriter, status int, message string, result any) {
	httpx.WriteJSON(w, status, resultResponse{
		Message: message,
		Result:  result,
		Status:  status,
	})
}

func writeFieldErrors(w http.ResponseWriter, status int, fields []service.FieldError) {
	httpx.WriteJSON(w, status, errorResponse{Errors: fields})
}

func writeError(w http.ResponseWriter, status int, title, detail string) {
	writeFieldErrors(w, status, []service.FieldError{{Title: title, Detail: detail}})
}

// userJSON renders a user for the wire. Free-form attributes sit at the top
// level next to the fixed fields, and the password hash never leaves the
// service.
func userJSON(u domain.User) map[string]any {
	out := make(map[string]any, len(u.Attributes)+5)
	for k, v := range u.Attributes {
		out[k] = v
	}
	out["id"] = u.ID
	out["username"] = u.Username
	out["email"] = u.Email
	out["createdAt"] = u.CreatedAt
	out["modifiedAt"] = u.ModifiedAt
	return out
}
