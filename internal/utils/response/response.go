package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/devaalay/asset-service/internal/upload"
)

// Response is the uniform envelope every endpoint returns.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// OK writes a success envelope with the given status.
func OK(w http.ResponseWriter, status int, data interface{}, message string) error {
	return WriteJSON(w, status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

// DecodeJSON decodes a JSON request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Error writes an error envelope, mapping upload pipeline errors to their
// HTTP status and everything else to 500.
func Error(w http.ResponseWriter, err error) error {
	status := http.StatusInternalServerError

	var ue *upload.Error
	if errors.As(err, &ue) {
		status = ue.Status()
	}

	return WriteJSON(w, status, Response{
		StatusCode: status,
		Data:       nil,
		Message:    err.Error(),
	})
}

// ErrorWithStatus writes an error envelope with an explicit status.
func ErrorWithStatus(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, Response{
		StatusCode: status,
		Data:       nil,
		Message:    message,
	})
}

// ValidationError writes a 400 envelope from validator field errors.
func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) error {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return ErrorWithStatus(w, http.StatusBadRequest, errorMessages)
}
