package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/draftradar/tipoff/internal/usecase"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Responses follow the Google JSON style guide: every body carries
// apiVersion plus exactly one of data or error.
const apiVersion = "2.0"

const errorDomain = "tipoff"

type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Status  string        `json:"status"`
	Errors  []errorDetail `json:"errors,omitempty"`
}

type errorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// errorClass maps one service sentinel onto its HTTP and wire form.
type errorClass struct {
	sentinel   error
	httpStatus int
	reason     string
	status     string
}

var errorClasses = []errorClass{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
}

var internalClass = errorClass{nil, http.StatusInternalServerError, "internalError", "INTERNAL"}

func classify(err error) errorClass {
	for _, class := range errorClasses {
		if errors.Is(err, class.sentinel) {
			return class
		}
	}
	return internalClass
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	class := classify(err)

	message := err.Error()
	if class.httpStatus >= http.StatusInternalServerError {
		// Unclassified failure details stay in logs and spans.
		message = "internal server error"
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
		if class.httpStatus >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, class.reason)
		}
	}

	writeJSON(w, class.httpStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    class.httpStatus,
			Message: message,
			Status:  class.status,
			Errors: []errorDetail{{
				Domain:  errorDomain,
				Reason:  class.reason,
				Message: message,
			}},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeError(ctx, w, errors.New("internal server error"))
}
