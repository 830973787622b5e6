package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

type APIError struct {
	Code      model.ErrorKind `json:"code"`
	Message   string          `json:"message"`
	SessionID string          `json:"session_id,omitempty"`
}

const codeInternal model.ErrorKind = "INTERNAL"

// errorKind reports the kind a client should act on. Stage failures report their cause.
func errorKind(err error) model.ErrorKind {
	kind := model.KindOf(err)
	if kind == model.KindGenerationFailed {
		if root := model.RootKind(err); root != "" {
			kind = root
		}
	}
	return kind
}

func httpStatus(kind model.ErrorKind) int {
	switch kind {
	case model.KindEmptyInput, model.KindInvalidConfig, model.KindUnknownProvider,
		model.KindUnknownModel, model.KindUnsupportedCapability:
		return http.StatusBadRequest
	case model.KindNoCredential:
		return http.StatusUnprocessableEntity
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case model.KindRateLimited:
		return http.StatusTooManyRequests
	case model.KindTransientNetworkError:
		return http.StatusServiceUnavailable
	case model.KindAuthenticationFailed, model.KindMalformedResponse, model.KindRequestRejected, model.KindGenerationFailed:
		return http.StatusBadGateway
	case model.KindCancelled:
		return http.StatusRequestTimeout
	case model.KindStorageFailed:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	writeSessionError(c, "", err)
}

func writeSessionError(c *gin.Context, sessionID string, err error) {
	_ = c.Error(err)

	var typed *model.Error
	if !errors.As(err, &typed) {
		c.JSON(http.StatusInternalServerError, APIError{
			Code:      codeInternal,
			Message:   http.StatusText(http.StatusInternalServerError),
			SessionID: sessionID,
		})
		return
	}

	kind := errorKind(err)
	c.JSON(httpStatus(kind), APIError{
		Code:      kind,
		Message:   typed.Error(),
		SessionID: sessionID,
	})
}
