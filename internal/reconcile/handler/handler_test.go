package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studbook/internal/reconcile"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/testutil"
)

type stubEngine struct {
	events []reconcile.Event
	err    error
}

func (s *stubEngine) Process(_ context.Context, event reconcile.Event) error {
	s.events = append(s.events, event)
	return s.err
}

func newWebhookRouter(engine *stubEngine) http.Handler {
	r := chi.NewRouter()
	New(engine, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestWebhookDelivery(t *testing.T) {
	engine := &stubEngine{}
	router := newWebhookRouter(engine)

	payload := map[string]any{
		"MessageType": "Membership",
		"Parameters": map[string]any{
			"Action":            "Disabled",
			"Contact.Id":        512,
			"Membership.Status": 2,
		},
	}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/webhooks/membership", payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, engine.events, 1)
	assert.Equal(t, "Disabled", engine.events[0].Parameters.Action)
}

func TestWebhookUpstreamFailureSignalsRetry(t *testing.T) {
	engine := &stubEngine{err: dErrors.New(dErrors.CodeUnavailable, "membership platform unreachable")}
	router := newWebhookRouter(engine)

	payload := map[string]any{
		"MessageType": "Membership",
		"Parameters":  map[string]any{"Action": "StatusChanged", "Contact.Id": 99},
	}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/webhooks/membership", payload))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestWebhookRejectsGarbage(t *testing.T) {
	engine := &stubEngine{}
	router := newWebhookRouter(engine)

	rr := testutil.DoRequest(router,
		testutil.NewRequestWithBody(t, http.MethodPost, "/webhooks/membership", "{not json"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, engine.events)
}
