// README: Handler tests for caller identity, request validation and error mapping.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeserve/internal/http/handlers"
	httpmiddleware "homeserve/internal/http/middleware"
	"homeserve/internal/infra"
	"homeserve/internal/modules/booking"
	"homeserve/internal/types"
)

type stubTokenVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

// stubBooking records the last command and answers with rec or err.
type stubBooking struct {
	rec  booking.Record
	err  error
	last any
}

func (s *stubBooking) reply(cmd any) (booking.Record, error) {
	s.last = cmd
	return s.rec, s.err
}

func (s *stubBooking) Create(_ context.Context, cmd booking.CreateCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) Get(_ context.Context, id types.ID, actor booking.Actor) (booking.Record, error) {
	return s.reply(actor)
}
func (s *stubBooking) Respond(_ context.Context, cmd booking.RespondCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) Cancel(_ context.Context, cmd booking.CancelCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) UpdateProgress(_ context.Context, cmd booking.ProgressCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) AddExtraCharge(_ context.Context, cmd booking.AddExtraChargeCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) ResolveExtraCharge(_ context.Context, cmd booking.ResolveExtraChargeCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) Complete(_ context.Context, cmd booking.CompleteCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) EnsurePaymentOrder(_ context.Context, id types.ID, actor booking.Actor) (booking.Record, error) {
	return s.reply(actor)
}
func (s *stubBooking) VerifyPayment(_ context.Context, cmd booking.VerifyPaymentCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) HandlePaymentWebhook(_ context.Context, body []byte, signature string) error {
	s.last = signature
	return s.err
}
func (s *stubBooking) ForceAssign(_ context.Context, cmd booking.ForceAssignCommand) (booking.Record, error) {
	return s.reply(cmd)
}
func (s *stubBooking) ForceStatus(_ context.Context, cmd booking.ForceStatusCommand) (booking.Record, error) {
	return s.reply(cmd)
}

func buildTestRouter(verifier infra.TokenVerifier, svc handlers.BookingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/payments/webhook", handlers.NewPaymentHandler(svc).Webhook)

	api := r.Group("/api", httpmiddleware.Auth(verifier))
	b := handlers.NewBookingHandler(svc)
	api.POST("/bookings", b.Create)
	api.GET("/bookings/:id", b.Get)
	api.POST("/bookings/:id/cancel", b.Cancel)
	api.POST("/bookings/:id/payment/verify", b.VerifyPayment)

	tech := handlers.NewTechnicianHandler(svc)
	api.POST("/technician/bookings/:id/respond", tech.Respond)
	api.POST("/technician/bookings/:id/status", tech.UpdateStatus)
	api.POST("/technician/bookings/:id/extra-charges", tech.AddExtraCharge)
	return r
}

func makeVerifier(uid, role string) *stubTokenVerifier {
	claims := map[string]interface{}{}
	if role != "" {
		claims["role"] = role
	}
	return &stubTokenVerifier{token: &infra.FirebaseToken{UID: uid, Claims: claims}}
}

func doRequest(r *gin.Engine, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc := &stubBooking{}
	r := buildTestRouter(&stubTokenVerifier{err: fmt.Errorf("no token")}, svc)
	w := doRequest(r, http.MethodPost, "/api/bookings", map[string]any{"service_id": "svc-ac", "address": "x"}, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, svc.last)
}

func TestCreate_UsesCallerAsCustomer(t *testing.T) {
	svc := &stubBooking{rec: booking.Record{ID: "bk-1", CustomerID: "realUID", Status: booking.StatusAssignedPending}}
	r := buildTestRouter(makeVerifier("realUID", ""), svc)
	w := doRequest(r, http.MethodPost, "/api/bookings", map[string]any{
		"customer_id": "otherUID",
		"service_id":  "svc-ac",
		"address":     "12 MG Road",
		"lat":         12.97,
		"lng":         77.59,
	}, "Bearer t")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cmd, ok := svc.last.(booking.CreateCommand)
	require.True(t, ok)
	assert.Equal(t, types.ID("realUID"), cmd.CustomerID)
	require.NotNil(t, cmd.Point)
	assert.Equal(t, 12.97, cmd.Point.Lat)
	assert.Contains(t, w.Body.String(), `"status":"ASSIGNED_PENDING"`)
}

func TestCreate_Validation(t *testing.T) {
	r := buildTestRouter(makeVerifier("c1", ""), &stubBooking{})
	cases := []map[string]any{
		{"address": "no service"},
		{"service_id": "svc-ac"},
		{"service_id": "svc-ac", "lat": 12.9},
	}
	for _, body := range cases {
		w := doRequest(r, http.MethodPost, "/api/bookings", body, "Bearer t")
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{booking.ErrNotFound, http.StatusNotFound},
		{booking.ErrCustomerMissing, http.StatusNotFound},
		{booking.ErrUnauthorized, http.StatusForbidden},
		{booking.ErrAlreadyAssigned, http.StatusConflict},
		{booking.ErrOTPMismatch, http.StatusConflict},
		{booking.ErrLocationNotServed, http.StatusUnprocessableEntity},
		{booking.ErrPaymentVerificationFailed, http.StatusBadRequest},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := buildTestRouter(makeVerifier("c1", ""), &stubBooking{err: tc.err})
		w := doRequest(r, http.MethodGet, "/api/bookings/bk-1", nil, "Bearer t")
		assert.Equal(t, tc.want, w.Code, "error %v", tc.err)
	}
}

func TestGet_HidesOTPFromTechnician(t *testing.T) {
	rec := booking.Record{ID: "bk-1", Status: booking.StatusAccepted, Meta: booking.Meta{OTP: "4821"}}

	w := doRequest(buildTestRouter(makeVerifier("cust-1", ""), &stubBooking{rec: rec}), http.MethodGet, "/api/bookings/bk-1", nil, "Bearer t")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"otp":"4821"`)

	w = doRequest(buildTestRouter(makeVerifier("tech-a", "technician"), &stubBooking{rec: rec}), http.MethodGet, "/api/bookings/bk-1", nil, "Bearer t")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "4821")
}

func TestCancel_ActorFromRole(t *testing.T) {
	svc := &stubBooking{}
	r := buildTestRouter(makeVerifier("tech-a", "technician"), svc)
	w := doRequest(r, http.MethodPost, "/api/bookings/bk-1/cancel", map[string]any{"reason": "flat tyre"}, "Bearer t")
	require.Equal(t, http.StatusOK, w.Code)
	cmd := svc.last.(booking.CancelCommand)
	assert.Equal(t, booking.TechnicianActor("tech-a"), cmd.Actor)
	assert.Equal(t, "flat tyre", cmd.Reason)
}

func TestRespond(t *testing.T) {
	svc := &stubBooking{}
	r := buildTestRouter(makeVerifier("tech-a", "technician"), svc)

	w := doRequest(r, http.MethodPost, "/api/technician/bookings/bk-1/respond", map[string]any{"action": "maybe"}, "Bearer t")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/technician/bookings/bk-1/respond", map[string]any{"action": "accept"}, "Bearer t")
	require.Equal(t, http.StatusOK, w.Code)
	cmd := svc.last.(booking.RespondCommand)
	assert.True(t, cmd.Accept)
	assert.Equal(t, types.ID("tech-a"), cmd.TechnicianID)
	assert.Equal(t, types.ID("bk-1"), cmd.BookingID)
}

func TestUpdateStatus_ParsesStatus(t *testing.T) {
	svc := &stubBooking{}
	r := buildTestRouter(makeVerifier("tech-a", "technician"), svc)

	w := doRequest(r, http.MethodPost, "/api/technician/bookings/bk-1/status", map[string]any{"status": "FLYING"}, "Bearer t")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/technician/bookings/bk-1/status", map[string]any{"status": "IN_PROGRESS", "otp": "4821"}, "Bearer t")
	require.Equal(t, http.StatusOK, w.Code)
	cmd := svc.last.(booking.ProgressCommand)
	assert.Equal(t, booking.StatusInProgress, cmd.Status)
	assert.Equal(t, "4821", cmd.OTP)
}

func TestAddExtraCharge_RequiresPositiveAmount(t *testing.T) {
	r := buildTestRouter(makeVerifier("tech-a", "technician"), &stubBooking{})
	w := doRequest(r, http.MethodPost, "/api/technician/bookings/bk-1/extra-charges", map[string]any{"title": "Gas", "amount": -5}, "Bearer t")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyPayment_PassesGatewayFields(t *testing.T) {
	svc := &stubBooking{}
	r := buildTestRouter(makeVerifier("cust-1", ""), svc)
	w := doRequest(r, http.MethodPost, "/api/bookings/bk-1/payment/verify", map[string]any{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "sig",
	}, "Bearer t")
	require.Equal(t, http.StatusOK, w.Code)
	cmd := svc.last.(booking.VerifyPaymentCommand)
	assert.Equal(t, types.ID("cust-1"), cmd.CustomerID)
	assert.Equal(t, "order_1", cmd.OrderID)
}

func TestWebhook_NoTokenNeeded(t *testing.T) {
	svc := &stubBooking{}
	r := buildTestRouter(&stubTokenVerifier{err: fmt.Errorf("unused")}, svc)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(`{"event":"order.paid"}`))
	req.Header.Set("X-Razorpay-Signature", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.last)

	svc.err = booking.ErrPaymentVerificationFailed
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
