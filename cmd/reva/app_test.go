package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reva/internal/app/dto"
	"reva/internal/infra/config"
	ginserver "reva/internal/infra/http/gin"
	"reva/internal/infra/obs"
)

type harness struct {
	t      *testing.T
	app    *application
	router *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Defaults()
	cfg.Env = "test"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := buildApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	router := ginserver.NewRouter(cfg, obs.Middleware{Logger: logger}, app.metrics, app.health, app.handlers)
	return &harness{t: t, app: app, router: router}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(email string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "secret": "password123"})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.AuthResponse
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestBookingLifecycle_EndToEnd(t *testing.T) {
	h := newHarness(t)
	guest := h.login("user@reva.com")
	owner := h.login("owner@reva.com")

	rec := h.do(http.MethodPost, "/api/v1/bookings", guest, map[string]string{
		"listing_id": "c5", "start_date": "2025-03-01", "end_date": "2025-03-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.BookingSummary](t, rec)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, int64(1100), created.TotalPrice)

	rec = h.do(http.MethodPost, "/api/v1/bookings/"+created.ID+"/status", guest, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/bookings/"+created.ID+"/status", owner, map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMED", decode[dto.BookingSummary](t, rec).Status)

	rec = h.do(http.MethodGet, "/api/v1/dashboard", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[dto.Dashboard](t, rec)
	assert.Equal(t, "owner", dash.Scope)
	assert.Equal(t, int64(360+240+1100), dash.TotalRevenue)
	assert.Equal(t, 1, dash.PendingCount)
	assert.Equal(t, 4, dash.PropertyCount)

	rec = h.do(http.MethodGet, "/api/v1/dashboard", guest, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/bookings?scope=mine", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.BookingCollection](t, rec).Items, 3)

	relayed, err := h.app.worker.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, relayed)

	rec = h.do(http.MethodGet, "/api/v1/bookings/"+created.ID+"/history", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[dto.BookingHistory](t, rec)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, "PENDING", history.Entries[0].To)
	assert.Equal(t, "CONFIRMED", history.Entries[1].To)
	assert.Equal(t, "2", history.Entries[1].Actor)
}

func TestCreateBooking_Idempotent(t *testing.T) {
	h := newHarness(t)
	guest := h.login("user@reva.com")
	body := map[string]string{"listing_id": "c3", "start_date": "2025-05-01", "end_date": "2025-05-02"}

	send := func() dto.BookingSummary {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(raw))
		req.Header.Set("Authorization", "Bearer "+guest)
		req.Header.Set("Idempotency-Key", "retry-1")
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[dto.BookingSummary](t, rec)
	}

	first := send()
	second := send()
	assert.Equal(t, first.ID, second.ID)
}

func TestCreateBooking_Errors(t *testing.T) {
	h := newHarness(t)
	guest := h.login("user@reva.com")

	rec := h.do(http.MethodPost, "/api/v1/bookings", "", map[string]string{"listing_id": "c1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/bookings", guest, map[string]string{
		"listing_id": "c1", "start_date": "2025-03-05", "end_date": "2025-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/bookings", guest, map[string]string{
		"listing_id": "missing", "start_date": "2025-03-01", "end_date": "2025-03-02",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignup_EndToEnd(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": "owner@reva.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": "New.Guest@Example.com"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	challenge := decode[dto.SignupChallengeResponse](t, rec)
	assert.False(t, challenge.Delivered)
	require.Len(t, challenge.Code, 6)

	rec = h.do(http.MethodPost, "/api/v1/auth/signup/verify", "", map[string]string{
		"name": "New Guest", "email": "new.guest@example.com", "secret": "s3cret", "code": "000000",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/auth/signup/verify", "", map[string]string{
		"name": "New Guest", "email": "new.guest@example.com", "secret": "s3cret", "code": challenge.Code,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	auth := decode[dto.AuthResponse](t, rec)
	assert.Equal(t, "USER", auth.User.Role)

	rec = h.do(http.MethodGet, "/api/v1/auth/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new.guest@example.com", decode[dto.UserProfile](t, rec).Email)

	rec = h.do(http.MethodPost, "/api/v1/auth/logout", auth.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, "/api/v1/auth/me", auth.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalog_EndToEnd(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/listings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[dto.ListingCollection](t, rec).Total)

	rec = h.do(http.MethodGet, "/api/v1/listings/search?location=amman", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[dto.ListingCollection](t, rec)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "c5", found.Items[0].ID)

	rec = h.do(http.MethodGet, "/api/v1/listings/c1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[dto.ListingDetail](t, rec)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, "Omar Owner", detail.Owner.Name)

	rec = h.do(http.MethodGet, "/api/v1/users/2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "owner@reva.com")

	rec = h.do(http.MethodPost, "/api/v1/assistant/messages", "", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "API key")

	rec = h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reva_http_requests_total")
}
