package server

import (
	"net/http"

	apperrors "github.com/rlei-miris/kit-render-service/pkg/errors"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// statusFor maps an error code to an HTTP status. Input problems are the
// caller's fault (400), ordering problems are state conflicts (409), a stale
// stage is retryable by the caller after re-validating (409), collaborator
// load failures are upstream failures (502), and a blown completion window
// is a gateway timeout (504). Everything else, including a breached artifact
// contract, is a server-side failure (500).
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeInvalidResolution,
		apperrors.ErrCodeInvalidCameraName,
		apperrors.ErrCodeInvalidPath,
		apperrors.ErrCodeUnrecognizedValue:
		return http.StatusBadRequest
	case apperrors.ErrCodePrecondition, apperrors.ErrCodeStaleStage:
		return http.StatusConflict
	case apperrors.ErrCodeStageLoad:
		return http.StatusBadGateway
	case apperrors.ErrCodeRenderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	writeJSONError(w, statusFor(code), string(code), apperrors.UserMessage(err))
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}
