package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/karaoke/internal/shared"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {error} with the status [shared.HTTPStatus] assigns to err.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, shared.HTTPStatus(err), errorBody{Error: err.Error()})
}

// writeFailure writes {error: msg} with the status classified from err.
func writeFailure(w http.ResponseWriter, err error, msg string) {
	WriteJSON(w, shared.HTTPStatus(err), errorBody{Error: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, messageBody{Message: msg})
}

// decodeJSON reads a JSON body into v. Malformed bodies are validation errors.
func decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", shared.ErrValidation, err)
	}
	return nil
}
