package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{
		Success: statusCode < 400,
		Data:    data,
	})
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

func Error(w http.ResponseWriter, statusCode int, err string) {
	write(w, statusCode, Response{Error: err})
}

func write(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func BadRequest(w http.ResponseWriter, err string) {
	Error(w, http.StatusBadRequest, err)
}

func Unauthorized(w http.ResponseWriter, err string) {
	Error(w, http.StatusUnauthorized, err)
}

func NotFound(w http.ResponseWriter, err string) {
	Error(w, http.StatusNotFound, err)
}

func InternalError(w http.ResponseWriter, err string) {
	Error(w, http.StatusInternalServerError, err)
}

// FromError maps the domain error kinds onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500 without its detail.
func FromError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		notFoundErr   *domain.NotFoundError
		networkErr    *domain.NetworkError
	)

	switch {
	case errors.As(err, &validationErr):
		write(w, http.StatusBadRequest, Response{Error: validationErr.Message, Field: validationErr.Field})
	case errors.As(err, &authErr):
		msg := authErr.Message
		if msg == "" {
			msg = "Your session has expired. Please login again."
		}
		Unauthorized(w, msg)
	case errors.As(err, &notFoundErr):
		NotFound(w, notFoundErr.Error())
	case errors.As(err, &networkErr):
		Error(w, http.StatusBadGateway, "Could not reach the server. Please try again.")
	default:
		logger.Log.Error("request failed", zap.Error(err))
		InternalError(w, "Something went wrong on this device. Please try again.")
	}
}
