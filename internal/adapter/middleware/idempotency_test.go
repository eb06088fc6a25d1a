package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const testKey = "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(IdempotencyMiddleware(rdb, ttl))
	e.POST("/api/loans/:id/payments", handler)
	e.GET("/api/loans/:id", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

// countingHandler answers 200 with the number of times it has run.
func countingHandler(calls *int32) echo.HandlerFunc {
	return func(c echo.Context) error {
		n := atomic.AddInt32(calls, 1)
		return c.JSON(http.StatusOK, map[string]any{"call": n})
	}
}

func Test_BypassOnGET(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 30*time.Second, countingHandler(&calls))

	rec := doReq(t, e, http.MethodGet, "/api/loans/1", nil, map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("GET must not touch the store, keys=%v", mr.Keys())
	}
}

func Test_NoHeader_PassesThroughEveryTime(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 30*time.Second, countingHandler(&calls))

	for i := 0; i < 2; i++ {
		rec := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]int{"x": 1}), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}
}

func Test_InvalidKey(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 30*time.Second, countingHandler(&calls))

	for _, k := range []string{"short", "has spaces in it", "semi;colon;key"} {
		rec := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]int{"x": 1}),
			map[string]string{HeaderIdempotencyKey: k})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("key %q => want 400, got %d", k, rec.Code)
		}
	}
	if calls != 0 {
		t.Fatalf("handler ran for invalid keys")
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls))
	h := map[string]string{HeaderIdempotencyKey: testKey}

	rec1 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]any{"paymentAmount": 518.84}), h)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request => want 200, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]any{"paymentAmount": 518.84}), h)
	if rec2.Code != http.StatusOK {
		t.Fatalf("replay => want 200, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replay header missing")
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func Test_SameKeyOtherRoute_IsIndependent(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls))
	e.POST("/api/loans", countingHandler(&calls))
	h := map[string]string{HeaderIdempotencyKey: testKey}

	doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]int{"x": 1}), h)
	doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}
}

func Test_SameKeyOtherLoan_Conflicts(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var loans []string
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		loans = append(loans, c.Param("id"))
		return c.JSON(http.StatusOK, map[string]string{"loan": c.Param("id")})
	})
	h := map[string]string{HeaderIdempotencyKey: testKey}
	body := []byte(`{"paymentAmount":518.84,"principalAmount":331.55,"interestAmount":187.29}`)

	rec1 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", bytes.NewReader(body), h)
	rec2 := doReq(t, e, http.MethodPost, "/api/loans/2/payments", bytes.NewReader(body), h)
	if rec1.Code != http.StatusOK || rec2.Code != http.StatusConflict {
		t.Fatalf("codes = %d, %d; want 200 then 409 (body=%s)", rec1.Code, rec2.Code, rec2.Body.String())
	}
	if rec2.Header().Get(HeaderReplayed) != "" {
		t.Fatal("loan 1 response replayed for loan 2")
	}
	if len(loans) != 1 || loans[0] != "1" {
		t.Fatalf("handler ran for loans %v", loans)
	}
}

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func Test_UnreadableBody_Returns400(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls))

	rec := doReq(t, e, http.MethodPost, "/api/loans/1/payments", brokenBody{}, map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if calls != 0 || len(mr.Keys()) != 0 {
		t.Fatalf("calls=%d keys=%v", calls, mr.Keys())
	}
}

func Test_ServerError_ReleasesKey(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return c.JSON(http.StatusOK, map[string]string{"ok": "yes"})
	})
	h := map[string]string{HeaderIdempotencyKey: testKey}

	rec1 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]int{"x": 1}), h)
	rec2 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec1.Code != http.StatusInternalServerError || rec2.Code != http.StatusOK {
		t.Fatalf("codes = %d, %d; want 500 then 200", rec1.Code, rec2.Code)
	}
}

func Test_HandlerError_IsRecorded(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return echo.NewHTTPError(http.StatusBadRequest, "bad split")
	})
	h := map[string]string{HeaderIdempotencyKey: testKey}

	rec1 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]int{"x": 1}), h)
	rec2 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec1.Code != http.StatusBadRequest || rec2.Code != http.StatusBadRequest {
		t.Fatalf("codes = %d, %d; want 400 twice", rec1.Code, rec2.Code)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls))

	body := []byte(`{"x":1}`)
	key := storeKey(http.MethodPost, "/api/loans/:id/payments", testKey)
	if ok, err := newReplayStore(rdb, time.Minute).reserve(context.Background(), key, fingerprint("/api/loans/1/payments", body)); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/api/loans/1/payments", bytes.NewReader(body), map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if calls != 0 {
		t.Fatalf("handler ran while key in progress")
	}
}

func Test_Conflict_When_SameKey_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls))
	h := map[string]string{HeaderIdempotencyKey: testKey}

	rec1 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", bytes.NewReader([]byte(`{"x":1}`)), h)
	rec2 := doReq(t, e, http.MethodPost, "/api/loans/1/payments", bytes.NewReader([]byte(`{"x":2}`)), h)
	if rec1.Code != http.StatusOK || rec2.Code != http.StatusConflict {
		t.Fatalf("codes = %d, %d; want 200 then 409", rec1.Code, rec2.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// Create a client that points to a closed address → SetNX error
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls))

	rec := doReq(t, e, http.MethodPost, "/api/loans/1/payments", bytes.NewReader([]byte(`{}`)), map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler ran without idempotency store")
	}
}
