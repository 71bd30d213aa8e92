package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	WebhookErrorBadInput        = "WEBHOOK_BAD_INPUT"
	WebhookErrorNotFound        = "WEBHOOK_NOT_FOUND"
	WebhookErrorSelectionFailed = "WEBHOOK_SELECTION_FAILED"
	WebhookErrorHandoffFailed   = "WEBHOOK_HANDOFF_FAILED"
	WebhookErrorCanceled        = "WEBHOOK_DISPATCH_CANCELED"
	WebhookErrorInternal        = "WEBHOOK_INTERNAL_ERROR"
)

// NewSelectionError reports that subscriptions for kind could not be
// loaded. No delivery was attempted for the event.
func NewSelectionError(kind EventKind, cause error) error {
	metadata := map[string]any{
		"event_kind": string(kind),
	}
	message := fmt.Sprintf("webhooks: subscription selection failed for %s", kind)
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(WebhookErrorSelectionFailed).
			WithMetadata(metadata)
	}
	metadata["cause"] = cause.Error()
	if isContextError(cause) {
		return goerrors.Wrap(cause, goerrors.CategoryOperation, message).
			WithCode(http.StatusServiceUnavailable).
			WithTextCode(WebhookErrorCanceled).
			WithMetadata(metadata)
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(WebhookErrorSelectionFailed).
		WithMetadata(metadata)
}

// NewHandoffError reports a failed submit for a single subscription.
func NewHandoffError(kind EventKind, subscriptionID string, cause error) error {
	metadata := map[string]any{
		"event_kind":      string(kind),
		"subscription_id": strings.TrimSpace(subscriptionID),
	}
	message := fmt.Sprintf("webhooks: delivery handoff failed for subscription %q", strings.TrimSpace(subscriptionID))
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(WebhookErrorHandoffFailed).
			WithMetadata(metadata)
	}
	metadata["cause"] = cause.Error()
	textCode := WebhookErrorHandoffFailed
	if isContextError(cause) {
		textCode = WebhookErrorCanceled
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(textCode).
		WithMetadata(metadata)
}

func NewBadInputError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(WebhookErrorBadInput)
}

func NewInternalError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(WebhookErrorInternal)
}

// MapError converts any error into the structured taxonomy consumed by the
// API layer. Rich errors keep their category and codes.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	if isContextError(err) {
		return ensureErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryOperation, err.Error()).
				WithCode(http.StatusServiceUnavailable).
				WithTextCode(WebhookErrorCanceled),
		)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newWebhookError(err.Error(), goerrors.CategoryNotFound, WebhookErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "unsupported"):
		return newWebhookError(err.Error(), goerrors.CategoryBadInput, WebhookErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func newWebhookError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = webhookHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultWebhookTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultWebhookTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return WebhookErrorBadInput
	case goerrors.CategoryNotFound:
		return WebhookErrorNotFound
	case goerrors.CategoryExternal:
		return WebhookErrorHandoffFailed
	default:
		return WebhookErrorInternal
	}
}

func webhookHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
