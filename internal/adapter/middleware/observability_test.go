package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loan-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

type observation struct {
	method, route string
	status        int
}

type fakeObserver struct{ got []observation }

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, observation{method, route, status})
}

func TestRequestID_PropagatesToContext(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = logger.RequestID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "client-supplied-id")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if seen != "client-supplied-id" {
		t.Fatalf("context request id = %q", seen)
	}
	if rec.Header().Get(echo.HeaderXRequestID) != "client-supplied-id" {
		t.Fatalf("response header = %q", rec.Header().Get(echo.HeaderXRequestID))
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if len(seen) != 32 || rec.Header().Get(echo.HeaderXRequestID) != seen {
		t.Fatalf("generated id = %q, header = %q", seen, rec.Header().Get(echo.HeaderXRequestID))
	}
}

func TestAccessLog_WritesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(logger.Config{Level: "info", Format: "json"}, &buf)

	e := echo.New()
	e.Use(RequestID(), AccessLog())
	e.GET("/api/loans/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "loan not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/loans/9", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"http request"`, `"status":404`, `"uri":"/api/loans/9"`, `"level":"WARN"`, `"request_id":"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %s:\n%s", want, out)
		}
	}
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	obs := &fakeObserver{}
	e := echo.New()
	e.Use(Metrics(obs))
	e.GET("/api/loans/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.PUT("/api/loans/:id/close", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot close loan with outstanding balance")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/loans/7", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/loans/8/close", nil))

	want := []observation{
		{http.MethodGet, "/api/loans/:id", http.StatusOK},
		{http.MethodPut, "/api/loans/:id/close", http.StatusBadRequest},
	}
	if len(obs.got) != len(want) {
		t.Fatalf("observations = %+v", obs.got)
	}
	for i := range want {
		if obs.got[i] != want[i] {
			t.Fatalf("observation %d = %+v, want %+v", i, obs.got[i], want[i])
		}
	}
}
