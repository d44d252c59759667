package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/newsletter/internal/pkg/httputil"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// maxFormBytes bounds the subscribe request body.
const maxFormBytes = 64 << 10

// SubscriptionService is the workflow the handlers drive.
// *subscription.Service satisfies it.
type SubscriptionService interface {
	Subscribe(ctx context.Context, req subscription.SubscribeRequest) (subscription.Outcome, error)
	Confirm(ctx context.Context, token string) error
}

// SubscriptionHandlers serves the signup and confirmation endpoints.
// Responses carry no body; the status code is the whole answer.
type SubscriptionHandlers struct {
	svc SubscriptionService
	log *logger.Logger
}

// NewSubscriptionHandlers creates the subscription endpoints.
func NewSubscriptionHandlers(svc SubscriptionService, log *logger.Logger) *SubscriptionHandlers {
	if log == nil {
		log = logger.Nop()
	}
	return &SubscriptionHandlers{svc: svc, log: log.With("handler", "subscriptions")}
}

// HandleSubscribe accepts a form with name and email.
//
//	POST /subscriptions
func (h *SubscriptionHandlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		httputil.Empty(w, http.StatusBadRequest)
		return
	}

	// absent fields are a malformed request, not a validation failure
	names, hasName := r.PostForm["name"]
	emails, hasEmail := r.PostForm["email"]
	if !hasName || !hasEmail {
		httputil.Empty(w, http.StatusBadRequest)
		return
	}

	outcome, err := h.svc.Subscribe(r.Context(), subscription.SubscribeRequest{
		Name:  names[0],
		Email: emails[0],
	})
	switch outcome {
	case subscription.OutcomeAccepted:
	case subscription.OutcomeRejectedInvalidInput:
		h.log.Info("Rejected subscription", "reason", errString(err))
	default:
		h.log.Error("Subscription failed",
			"outcome", outcome.String(),
			"request_id", requestID(r),
			"error", errString(err),
		)
	}
	httputil.Empty(w, outcome.HTTPStatus())
}

// HandleConfirm confirms a pending subscriber.
//
//	GET /subscriptions/confirm?subscription_token=<token>
func (h *SubscriptionHandlers) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	tokens, ok := r.URL.Query()["subscription_token"]
	if !ok {
		httputil.Empty(w, http.StatusBadRequest)
		return
	}

	err := h.svc.Confirm(r.Context(), tokens[0])
	switch {
	case err == nil:
		httputil.Empty(w, http.StatusOK)
	case errors.Is(err, subscription.ErrMissingToken):
		httputil.Empty(w, http.StatusBadRequest)
	case errors.Is(err, subscription.ErrTokenNotFound):
		httputil.Empty(w, http.StatusUnauthorized)
	default:
		httputil.InternalError(w, h.log.With("request_id", requestID(r)), err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
