package server

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

func TestRouterDispatchesToDatasetRoute(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/hr/employees", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 204 status, got %d (body=%s)", resp.StatusCode, string(body))
	}
	if app.recorder.routeName != "hr" {
		t.Fatalf("expected hr route, got %s", app.recorder.routeName)
	}
	if app.recorder.subPath != "employees" {
		t.Fatalf("expected wildcard employees, got %q", app.recorder.subPath)
	}
	if reqID := resp.Header.Get("X-Request-ID"); reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func TestRouterServesDatasetRoot(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/crm", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 status, got %d", resp.StatusCode)
	}
	if app.recorder.routeName != "crm" {
		t.Fatalf("expected crm route, got %s", app.recorder.routeName)
	}
}

func TestRouterReturns404WhenDatasetUnknown(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/payroll/runs", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 status, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"dataset_not_found"`)) {
		t.Fatalf("expected dataset_not_found error, got %s", string(body))
	}
	if app.recorder.routeName != "" {
		t.Fatalf("proxy should not be invoked for unknown dataset")
	}
}

func TestRouterKeepsIncomingRequestID(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/hr", nil)
	req.Header.Set("X-Request-ID", "dash-42")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if got := resp.Header.Get("X-Request-ID"); got != "dash-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
	if app.recorder.requestID != "dash-42" {
		t.Fatalf("expected handler to see request id, got %q", app.recorder.requestID)
	}
}

func TestRouterRecoversFromHandlerPanic(t *testing.T) {
	registry := newTestRegistry(t, newJSONUpstream(t))
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app, err := NewApp(AppOptions{
		Logger:   logger,
		Registry: registry,
		Proxy: ProxyHandlerFunc(func(fiber.Ctx, *DatasetRoute) error {
			panic("boom")
		}),
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/hr", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", resp.StatusCode)
	}
}

func TestNewAppRequiresDependencies(t *testing.T) {
	logger := logrus.New()
	if _, err := NewApp(AppOptions{Registry: &DatasetRegistry{}, Proxy: &proxyRecorder{}}); err == nil {
		t.Fatalf("expected error without logger")
	}
	if _, err := NewApp(AppOptions{Logger: logger, Proxy: &proxyRecorder{}}); err == nil {
		t.Fatalf("expected error without registry")
	}
	if _, err := NewApp(AppOptions{Logger: logger, Registry: &DatasetRegistry{}}); err == nil {
		t.Fatalf("expected error without proxy handler")
	}
}

type testApp struct {
	*fiber.App
	recorder *proxyRecorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	registry := newTestRegistry(t, newJSONUpstream(t))
	if _, ok := registry.Lookup("hr"); !ok {
		t.Fatalf("registry lookup failed for hr")
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	recorder := &proxyRecorder{}
	app, err := NewApp(AppOptions{
		Logger:   logger,
		Registry: registry,
		Proxy:    recorder,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	return &testApp{App: app, recorder: recorder}
}

type proxyRecorder struct {
	routeName string
	subPath   string
	requestID string
}

func (p *proxyRecorder) Handle(c fiber.Ctx, route *DatasetRoute) error {
	p.routeName = route.Config.Name
	p.subPath = c.Params("*")
	p.requestID = RequestID(c)
	return c.SendStatus(fiber.StatusNoContent)
}
