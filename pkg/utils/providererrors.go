package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

// ClassifyHTTPStatus maps a vendor HTTP status to an error kind.
func ClassifyHTTPStatus(status int) model.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.KindAuthenticationFailed
	case status == http.StatusTooManyRequests:
		return model.KindRateLimited
	case status == http.StatusRequestEntityTooLarge:
		return model.KindPayloadTooLarge
	case status == http.StatusRequestTimeout || status >= 500:
		return model.KindTransientNetworkError
	case status >= 400:
		return model.KindRequestRejected
	default:
		return model.KindMalformedResponse
	}
}

// IsTransportError reports timeouts, refused or reset connections and truncated bodies.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// NewHTTPStatusError builds the tagged error for a non-2xx vendor response.
func NewHTTPStatusError(provider string, status int, message string, err error) *model.Error {
	return model.NewError(
		ClassifyHTTPStatus(status),
		provider,
		fmt.Sprintf("%s API error (%d): %s", provider, status, message),
		err,
	)
}

// ClassifyTransportError tags an error raised before any response arrived.
// Errors that are already tagged are returned unchanged.
func ClassifyTransportError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if model.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return model.NewError(model.KindCancelled, provider, "request cancelled", err)
	}
	if IsTransportError(err) {
		return model.NewError(model.KindTransientNetworkError, provider, err.Error(), err)
	}
	return model.NewError(model.KindRequestRejected, provider, err.Error(), err)
}
