package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"folio/internal/booking"
	"folio/internal/contact"
	"folio/internal/messaging"
	"folio/internal/ratelimit"
	"folio/internal/slots"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Thursday, October 15th 2026.
var testNow = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

type fakeMessenger struct {
	mu   sync.Mutex
	sent []messaging.Message
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, msg messaging.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

type testEnv struct {
	router    *gin.Engine
	store     *booking.Store
	messenger *fakeMessenger
}

func newTestEnv(t *testing.T, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zerolog.New(io.Discard)
	clock := booking.ClockFunc(func() time.Time { return testNow })
	m := &fakeMessenger{}
	store := booking.NewStore(time.Hour, func(locale booking.Locale) *booking.Controller {
		return booking.NewController(booking.Options{
			Clock:     clock,
			Locale:    locale,
			Messenger: m,
			Logger:    &logger,
		})
	})

	router := New(Deps{
		Store:           store,
		Contact:         contact.NewService(m, time.Second, &logger),
		Limiter:         limiter,
		Slots:           slots.MustLabels(slots.DefaultSchedule()),
		Clock:           clock,
		DefaultTimezone: "UTC",
		CORSOrigins:     []string{"https://example.com"},
		Logger:          &logger,
	})
	return &testEnv{router: router, store: store, messenger: m}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func noticeTitle(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	notice, ok := decode(t, w)["notice"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return notice["title"].(string)
}

func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/booking/sessions", map[string]string{"timezone": "Europe/Berlin"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "date", body["step"])
	return body["id"].(string)
}

func (e *testEnv) fillSession(t *testing.T, id string) {
	t.Helper()
	base := "/api/booking/sessions/" + id

	w := e.do(t, http.MethodPost, base+"/date", map[string]string{"date": "2026-10-26"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["accepted"])

	w = e.do(t, http.MethodPost, base+"/time", map[string]string{"slot": "10:00"})
	require.Equal(t, http.StatusOK, w.Code)

	for field, value := range map[string]string{
		"name": "Ada", "email": "ada@example.com", "callType": "Video Call", "message": "hi",
	} {
		w = e.do(t, http.MethodPatch, base+"/contact", map[string]string{"field": field, "value": value})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
}

func TestSlotsAndCalendar(t *testing.T) {
	e := newTestEnv(t, nil)

	w := e.do(t, http.MethodGet, "/api/booking/slots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["slots"], 19)

	w = e.do(t, http.MethodGet, "/api/booking/calendar?year=2026&month=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var grid slots.Month
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grid))
	assert.Equal(t, "October 2026", grid.Title)

	w = e.do(t, http.MethodGet, "/api/booking/calendar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/booking/calendar?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodGet, "/api/booking/calendar?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodGet, "/api/booking/calendar?timezone=Mars/Base", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingFlow(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.openSession(t)
	e.fillSession(t, id)

	w := e.do(t, http.MethodGet, "/api/booking/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "details", body["step"])
	assert.Equal(t, "2026-10-26", body["selectedDate"])
	assert.Equal(t, "10:00", body["selectedTime"])

	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Call Request Sent Successfully! 🎉", noticeTitle(t, w))

	require.Len(t, e.messenger.sent, 1)
	assert.Equal(t, "Monday, October 26, 2026 at 10:00 (Europe/Berlin)", e.messenger.sent[0].Get("datetime"))

	// The finished dialog is gone.
	w = e.do(t, http.MethodGet, "/api/booking/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, e.store.Len())
}

func TestSelectDateRejected(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.openSession(t)

	w := e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/date", map[string]string{"date": "2026-10-24"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["accepted"])
	assert.Equal(t, "date", body["step"])

	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/date", map[string]string{"date": "26/10/2026"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectTimeErrors(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.openSession(t)
	base := "/api/booking/sessions/" + id

	w := e.do(t, http.MethodPost, base+"/time", map[string]string{"slot": "10:00"})
	assert.Equal(t, http.StatusConflict, w.Code)

	e.do(t, http.MethodPost, base+"/date", map[string]string{"date": "2026-10-26"})
	w = e.do(t, http.MethodPost, base+"/time", map[string]string{"slot": "10:15"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "date", decode(t, w)["step"])
}

func TestUpdateContactErrors(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.openSession(t)
	base := "/api/booking/sessions/" + id + "/contact"

	for _, body := range []map[string]string{
		{"field": "phone", "value": "1"},
		{"field": "timezone", "value": "UTC"},
		{"field": "callType", "value": "Carrier Pigeon"},
	} {
		w := e.do(t, http.MethodPatch, base, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.openSession(t)
	e.fillSession(t, id)

	w := e.do(t, http.MethodPatch, "/api/booking/sessions/"+id+"/contact",
		map[string]string{"field": "callType", "value": ""})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, booking.ReasonMissingCallType, body["reason"])
	assert.Equal(t, "callType", body["field"])
	assert.Equal(t, "Missing Call Type", noticeTitle(t, w))
	assert.Empty(t, e.messenger.sent)
}

func TestSubmitOutsideDetailsStep(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.openSession(t)
	e.fillSession(t, id)

	w := e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, e.messenger.sent)

	w = e.do(t, http.MethodGet, "/api/booking/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "time", decode(t, w)["step"])

	fresh := e.openSession(t)
	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+fresh+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, e.messenger.sent)
}

func TestSubmitDeliveryFailureKeepsSession(t *testing.T) {
	e := newTestEnv(t, nil)
	e.messenger.err = errors.New("relay down")
	id := e.openSession(t)
	e.fillSession(t, id)

	w := e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to Schedule Call", noticeTitle(t, w))
	assert.NotContains(t, w.Body.String(), "relay down")

	w = e.do(t, http.MethodGet, "/api/booking/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "details", decode(t, w)["step"])
}

func TestCancelSession(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.openSession(t)

	w := e.do(t, http.MethodDelete, "/api/booking/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodDelete, "/api/booking/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenSessionDefaults(t *testing.T) {
	e := newTestEnv(t, nil)

	w := e.do(t, http.MethodPost, "/api/booking/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	contactBody := decode(t, w)["contact"].(map[string]any)
	assert.Equal(t, "UTC", contactBody["timezone"])

	w = e.do(t, http.MethodPost, "/api/booking/sessions", map[string]string{"timezone": "Not/AZone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContact(t *testing.T) {
	e := newTestEnv(t, nil)

	w := e.do(t, http.MethodPost, "/api/contact", contact.Form{
		Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Message sent successfully!", noticeTitle(t, w))

	w = e.do(t, http.MethodPost, "/api/contact", contact.Form{Name: "Ada", Email: "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "subject", decode(t, w)["field"])

	e.messenger.err = errors.New("relay down")
	w = e.do(t, http.MethodPost, "/api/contact", contact.Form{
		Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello",
	})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Error sending message", noticeTitle(t, w))
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newTestEnv(t, ratelimit.NewLimiter(rdb, ratelimit.Config{Limit: 2, Window: time.Minute}))

	form := contact.Form{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}
	for i := 0; i < 2; i++ {
		w := e.do(t, http.MethodPost, "/api/contact", form)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := e.do(t, http.MethodPost, "/api/contact", form)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too Many Requests", noticeTitle(t, w))

	// Booking submissions count separately.
	id := e.openSession(t)
	e.fillSession(t, id)
	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitIgnoresRejectedSubmissions(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newTestEnv(t, ratelimit.NewLimiter(rdb, ratelimit.Config{Limit: 1, Window: time.Minute}))

	bad := contact.Form{Name: "Ada", Email: "not-an-email", Subject: "Hi", Message: "Hello"}
	for i := 0; i < 3; i++ {
		w := e.do(t, http.MethodPost, "/api/contact", bad)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}
	good := contact.Form{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}
	w := e.do(t, http.MethodPost, "/api/contact", good)
	require.Equal(t, http.StatusOK, w.Code)

	id := e.openSession(t)
	e.fillSession(t, id)
	w = e.do(t, http.MethodPatch, "/api/booking/sessions/"+id+"/contact",
		map[string]string{"field": "email", "value": "nope"})
	require.Equal(t, http.StatusOK, w.Code)
	for i := 0; i < 3; i++ {
		w = e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/submit", nil)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}
	fresh := e.openSession(t)
	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+fresh+"/submit", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPatch, "/api/booking/sessions/"+id+"/contact",
		map[string]string{"field": "email", "value": "ada@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The budget is now spent for both scopes.
	w = e.do(t, http.MethodPost, "/api/contact", good)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	again := e.openSession(t)
	e.fillSession(t, again)
	w = e.do(t, http.MethodPost, "/api/booking/sessions/"+again+"/submit", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Len(t, e.messenger.sent, 2)
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
