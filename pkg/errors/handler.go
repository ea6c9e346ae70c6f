package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// ErrorHandler renders errors as ErrorResponse bodies. Internal messages are
// only exposed in debug mode.
type ErrorHandler struct {
	logger        *zap.Logger
	debug         bool
	defaultStatus int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
	}
}

// Handle writes err as a JSON error response. The active span, if any, gets
// the error recorded and its trace id is echoed in X-Trace-ID.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status, response := h.describe(err)
	response.RequestID = middleware.GetReqID(r.Context())

	span := trace.SpanFromContext(r.Context())
	if sc := span.SpanContext(); sc.HasTraceID() {
		response.TraceID = sc.TraceID().String()
		w.Header().Set("X-Trace-ID", response.TraceID)
	}
	span.RecordError(err)
	if status >= 500 {
		span.SetStatus(codes.Error, response.Message)
	}

	h.log(r, err, status, response)
	h.sendJSON(w, status, response)
}

// describe maps err to a status and response body without request context
func (h *ErrorHandler) describe(err error) (int, ErrorResponse) {
	appErr := GetAppError(err)
	if appErr == nil {
		message := "An internal error occurred"
		if h.debug {
			message = err.Error()
		}
		return h.defaultStatus, ErrorResponse{
			Error:   true,
			Type:    string(ErrorTypeInternal),
			Message: message,
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = h.defaultStatus
	}
	response := ErrorResponse{
		Error:   true,
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}
	if h.debug && appErr.StackTrace != "" {
		details := make(map[string]interface{}, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
		response.Details = details
	}
	return status, response
}

// HandleStatus sends an error response with a specific status code
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message),
	)
	h.sendJSON(w, status, ErrorResponse{
		Error:     true,
		Type:      h.statusToErrorType(status),
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// log picks the level from the status class
func (h *ErrorHandler) log(r *http.Request, err error, status int, response ErrorResponse) {
	fields := []zap.Field{
		zap.String("error_type", response.Type),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", response.RequestID),
	}
	if response.TraceID != "" {
		fields = append(fields, zap.String("trace_id", response.TraceID))
	}
	if response.Code != "" {
		fields = append(fields, zap.String("error_code", response.Code))
	}

	appErr := GetAppError(err)
	switch {
	case appErr == nil:
		h.logger.Error("Unhandled error", append(fields, zap.Error(err))...)
	case status >= 500:
		if appErr.Cause != nil {
			fields = append(fields, zap.Error(appErr.Cause))
		}
		h.logger.Error(appErr.Message, fields...)
	default:
		h.logger.Warn(appErr.Message, fields...)
	}
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

func (h *ErrorHandler) statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(ErrorTypeValidation)
	case http.StatusNotFound:
		return string(ErrorTypeNotFound)
	case http.StatusConflict:
		return string(ErrorTypeConflict)
	case http.StatusUnprocessableEntity:
		return string(ErrorTypeCorruptDocument)
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusTooManyRequests:
		return string(ErrorTypeRateLimited)
	default:
		return string(ErrorTypeInternal)
	}
}

// Middleware turns panics in later handlers into 500 responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
