package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/inletworks/inlet-core/internal/assignment"
	"github.com/inletworks/inlet-core/internal/audit"
	"github.com/inletworks/inlet-core/internal/device"
	"github.com/inletworks/inlet-core/internal/endpoint"
	"github.com/inletworks/inlet-core/internal/infrastructure/config"
	"github.com/inletworks/inlet-core/internal/infrastructure/logging"
	"github.com/inletworks/inlet-core/internal/pipeline"
)

const testOwner = "op-test"

// testSchema mirrors the initial migration so handler tests run against
// the same tables and constraints as production.
const testSchema = `
	CREATE TABLE devices (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		device_key TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	) STRICT;
	CREATE TABLE endpoints (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		data_push_endpoint TEXT NOT NULL,
		auth_endpoint TEXT NOT NULL,
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	) STRICT;
	CREATE TABLE pipelines (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		execution_mode TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	) STRICT;
	CREATE TABLE pipeline_endpoints (
		pipeline_id TEXT NOT NULL REFERENCES pipelines(id),
		endpoint_id TEXT NOT NULL REFERENCES endpoints(id),
		sort_order INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (pipeline_id, endpoint_id)
	) STRICT;
	CREATE TABLE pipeline_devices (
		pipeline_id TEXT NOT NULL REFERENCES pipelines(id),
		device_id TEXT NOT NULL UNIQUE REFERENCES devices(id),
		sort_order INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (pipeline_id, device_id)
	) STRICT;
	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT,
		owner_id TEXT,
		source TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	) STRICT;
`

// newTestServer wires a server against an in-memory database with real
// repositories and registries, and returns its router for httptest use.
func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if _, err := db.Exec(testSchema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")

	devices := device.NewRegistry(device.NewSQLiteRepository(db))
	endpoints := endpoint.NewRegistry(endpoint.NewSQLiteRepository(db))
	pipelines := pipeline.NewRegistry(pipeline.NewSQLiteRepository(db))

	ctx := context.Background()
	for name, load := range map[string]func(context.Context) error{
		"devices":   devices.Load,
		"endpoints": endpoints.Load,
		"pipelines": pipelines.Load,
	} {
		if err := load(ctx); err != nil {
			t.Fatalf("failed to load %s registry: %v", name, err)
		}
	}

	coord := assignment.NewCoordinator(devices, endpoints, pipelines)

	srv, err := New(Deps{
		Config:      config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:          config.WebSocketConfig{Path: "/ws", MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 10},
		Logger:      logger,
		Devices:     devices,
		Endpoints:   endpoints,
		Pipelines:   pipelines,
		Coordinator: coord,
		Audit:       audit.NewSQLiteRepository(db),
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return srv, srv.buildRouter()
}

// doRequest performs a request against the router with the test owner
// identity and returns the recorded response.
func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ownerHeader, testOwner)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorded JSON response into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
	return m
}

// createTestDevice registers a device through the API and fails the test
// on any non-201 response.
func createTestDevice(t *testing.T, router http.Handler, id string) {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/devices", map[string]string{
		"id":       id,
		"name":     "Device " + id,
		"location": "rack-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create device %s: status = %d, body = %s", id, rec.Code, rec.Body.String())
	}
}

// createTestEndpoint registers an endpoint and returns its server-assigned id.
func createTestEndpoint(t *testing.T, router http.Handler, name string) string {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/endpoints", map[string]string{
		"name":               name,
		"data_push_endpoint": "https://sink.example.com/push",
		"auth_endpoint":      "https://sink.example.com/auth",
		"username":           "collector",
		"password":           "secret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create endpoint %s: status = %d, body = %s", name, rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["id"].(string)
}

// createTestPipeline registers a pipeline and returns its server-assigned id.
func createTestPipeline(t *testing.T, router http.Handler, name string) string {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines", map[string]string{
		"name":           name,
		"description":    "test pipeline",
		"status":         "active",
		"execution_mode": "streaming",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create pipeline %s: status = %d, body = %s", name, rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["id"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version field = %v, want test", body["version"])
	}
}

func TestOwnerIdentityRequired(t *testing.T) {
	_, router := newTestServer(t)

	// No X-Inlet-Owner header
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if body := decodeBody(t, rec); body["code"] != ErrCodeUnauthorized {
		t.Errorf("error body = %v, want code %s", body, ErrCodeUnauthorized)
	}
}

func TestDeviceCRUD(t *testing.T) {
	_, router := newTestServer(t)

	t.Run("create", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/devices", map[string]string{
			"id": "IOT-DEV-001", "name": "Feeder", "location": "rack-1",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["id"] != "IOT-DEV-001" || body["owner_id"] != testOwner {
			t.Errorf("unexpected device body: %v", body)
		}
		if key, _ := body["device_key"].(string); key == "" {
			t.Error("device_key not issued on create")
		}
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/devices", map[string]string{
			"id": "IOT-DEV-001", "name": "Clone", "location": "rack-2",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("missing name rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/devices", map[string]string{
			"id": "IOT-DEV-002", "location": "rack-1",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/IOT-DEV-001", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decodeBody(t, rec); body["name"] != "Feeder" {
			t.Errorf("name = %v, want Feeder", body["name"])
		}
	})

	t.Run("get unknown returns 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/no-such", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("update", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/api/v1/devices/IOT-DEV-001", map[string]string{
			"location": "rack-9",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["location"] != "rack-9" || body["name"] != "Feeder" {
			t.Errorf("partial update mismatch: %v", body)
		}
	})

	t.Run("list is owner scoped", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decodeBody(t, rec); body["count"] != float64(1) {
			t.Errorf("count = %v, want 1", body["count"])
		}

		// Another owner sees nothing
		req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
		req.Header.Set(ownerHeader, "op-other")
		other := httptest.NewRecorder()
		router.ServeHTTP(other, req)
		if body := decodeBody(t, other); body["count"] != float64(0) {
			t.Errorf("other owner count = %v, want 0", body["count"])
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/devices/IOT-DEV-001", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		rec = doRequest(t, router, http.MethodGet, "/api/v1/devices/IOT-DEV-001", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status after delete = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestEndpointValidation(t *testing.T) {
	_, router := newTestServer(t)

	t.Run("valid endpoint created", func(t *testing.T) {
		id := createTestEndpoint(t, router, "primary-sink")
		rec := doRequest(t, router, http.MethodGet, "/api/v1/endpoints/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("non-http URL rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/endpoints", map[string]string{
			"name":               "bad-sink",
			"data_push_endpoint": "ftp://sink.example.com/push",
			"auth_endpoint":      "https://sink.example.com/auth",
			"username":           "collector",
			"password":           "secret",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestPipelineCRUD(t *testing.T) {
	_, router := newTestServer(t)

	t.Run("invalid status rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines", map[string]string{
			"name": "bad", "status": "paused", "execution_mode": "streaming",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	id := createTestPipeline(t, router, "telemetry")

	t.Run("update execution mode", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/api/v1/pipelines/"+id, map[string]string{
			"execution_mode": "batch",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if body := decodeBody(t, rec); body["execution_mode"] != "batch" {
			t.Errorf("execution_mode = %v, want batch", body["execution_mode"])
		}
	})

	t.Run("delete empty pipeline", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/pipelines/"+id, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestDeletePipelineWithEndpoints(t *testing.T) {
	_, router := newTestServer(t)

	p := createTestPipeline(t, router, "drain-me")
	ep := createTestEndpoint(t, router, "shared-sink")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p+"/endpoints/"+ep, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("attach status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Endpoints are shared; an attached endpoint never blocks deletion.
	rec = doRequest(t, router, http.MethodDelete, "/api/v1/pipelines/"+p, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/endpoints/"+ep, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("endpoint status after pipeline delete = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestDeviceAttachment(t *testing.T) {
	_, router := newTestServer(t)

	createTestDevice(t, router, "IOT-DEV-010")
	p1 := createTestPipeline(t, router, "pipeline-one")
	p2 := createTestPipeline(t, router, "pipeline-two")

	t.Run("attach", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p1+"/devices/IOT-DEV-010", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("device reports its pipeline", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/IOT-DEV-010/pipeline", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["attached"] != true || body["pipeline_id"] != p1 {
			t.Errorf("attachment body = %v, want pipeline %s", body, p1)
		}
	})

	t.Run("second pipeline conflicts", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p2+"/devices/IOT-DEV-010", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
		if body := decodeBody(t, rec); body["code"] != ErrCodeDeviceAttached {
			t.Errorf("error body = %v, want code %s", body, ErrCodeDeviceAttached)
		}
	})

	t.Run("pipeline with device cannot be deleted", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/pipelines/"+p1, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("detach non-member is a no-op", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/pipelines/"+p2+"/devices/IOT-DEV-010", nil)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		rec = doRequest(t, router, http.MethodGet, "/api/v1/devices/IOT-DEV-010/pipeline", nil)
		if body := decodeBody(t, rec); body["pipeline_id"] != p1 {
			t.Errorf("pipeline_id = %v, want %s", body["pipeline_id"], p1)
		}
	})

	t.Run("detach", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/pipelines/"+p1+"/devices/IOT-DEV-010", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		rec = doRequest(t, router, http.MethodGet, "/api/v1/devices/IOT-DEV-010/pipeline", nil)
		if body := decodeBody(t, rec); body["attached"] != false {
			t.Errorf("attached = %v after detach, want false", body["attached"])
		}
	})
}

func TestEndpointCapacity(t *testing.T) {
	_, router := newTestServer(t)

	p := createTestPipeline(t, router, "fan-out")

	for i := 1; i <= 4; i++ {
		id := createTestEndpoint(t, router, fmt.Sprintf("sink-%d", i))
		rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p+"/endpoints/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("attach endpoint %d: status = %d, body = %s", i, rec.Code, rec.Body.String())
		}
	}

	overflow := createTestEndpoint(t, router, "sink-5")
	rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p+"/endpoints/"+overflow, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("fifth attach: status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if body := decodeBody(t, rec); body["code"] != ErrCodeCapacity {
		t.Errorf("error body = %v, want code %s", body, ErrCodeCapacity)
	}
}

func TestMoveDevice(t *testing.T) {
	_, router := newTestServer(t)

	createTestDevice(t, router, "IOT-DEV-020")
	p1 := createTestPipeline(t, router, "source")
	p2 := createTestPipeline(t, router, "destination")

	attach := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p1+"/devices/IOT-DEV-020", nil)
	if attach.Code != http.StatusOK {
		t.Fatalf("attach: status = %d", attach.Code)
	}

	t.Run("missing pipeline ids rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/devices/IOT-DEV-020/move", map[string]string{
			"from_pipeline_id": p1,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("same pipeline rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/devices/IOT-DEV-020/move", map[string]string{
			"from_pipeline_id": p1, "to_pipeline_id": p1,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("wrong source fails precondition", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/devices/IOT-DEV-020/move", map[string]string{
			"from_pipeline_id": p2, "to_pipeline_id": p1,
		})
		if rec.Code != http.StatusPreconditionFailed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusPreconditionFailed)
		}
	})

	t.Run("successful move", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/devices/IOT-DEV-020/move", map[string]string{
			"from_pipeline_id": p1, "to_pipeline_id": p2,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["from"] != p1 || body["to"] != p2 {
			t.Errorf("move body = %v", body)
		}

		rec = doRequest(t, router, http.MethodGet, "/api/v1/devices/IOT-DEV-020/pipeline", nil)
		if got := decodeBody(t, rec); got["pipeline_id"] != p2 {
			t.Errorf("device pipeline = %v, want %s", got["pipeline_id"], p2)
		}
	})
}

func TestListPipelineDevices(t *testing.T) {
	_, router := newTestServer(t)

	p := createTestPipeline(t, router, "bulk")
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("IOT-DEV-%03d", i)
		createTestDevice(t, router, id)
		rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p+"/devices/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("attach %s: status = %d", id, rec.Code)
		}
	}

	t.Run("first page", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/pipelines/"+p+"/devices?page=1&page_size=2", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		items := body["items"].([]any)
		if len(items) != 2 {
			t.Errorf("items = %d, want 2", len(items))
		}
		if body["total_items"] != float64(5) || body["total_pages"] != float64(3) {
			t.Errorf("totals = %v/%v, want 5/3", body["total_items"], body["total_pages"])
		}
		// Attach order preserved
		if first := items[0].(map[string]any); first["id"] != "IOT-DEV-001" {
			t.Errorf("first item = %v, want IOT-DEV-001", first["id"])
		}
	})

	t.Run("page past end clamps to last", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/pipelines/"+p+"/devices?page=99&page_size=2", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["page"] != float64(3) {
			t.Errorf("page = %v, want 3", body["page"])
		}
		if items := body["items"].([]any); len(items) != 1 {
			t.Errorf("last page items = %d, want 1", len(items))
		}
	})

	t.Run("unknown pipeline returns 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/pipelines/no-such/devices", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestAuditTrail(t *testing.T) {
	_, router := newTestServer(t)

	createTestDevice(t, router, "IOT-DEV-030")
	p := createTestPipeline(t, router, "audited")
	rec := doRequest(t, router, http.MethodPost, "/api/v1/pipelines/"+p+"/devices/IOT-DEV-030", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("attach: status = %d", rec.Code)
	}

	t.Run("all entries recorded", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/audit", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		// Device create + pipeline create + attach
		if body := decodeBody(t, rec); body["total"] != float64(3) {
			t.Errorf("total = %v, want 3", body["total"])
		}
	})

	t.Run("filter by action", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/audit?action=attach", nil)
		body := decodeBody(t, rec)
		if body["total"] != float64(1) {
			t.Fatalf("total = %v, want 1", body["total"])
		}
		logs := body["logs"].([]any)
		entry := logs[0].(map[string]any)
		if entry["entity_id"] != "IOT-DEV-030" || entry["owner_id"] != testOwner {
			t.Errorf("attach entry = %v", entry)
		}
	})

	t.Run("filter by entity type", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/audit?entity_type=pipeline", nil)
		if body := decodeBody(t, rec); body["total"] != float64(1) {
			t.Errorf("total = %v, want 1", body["total"])
		}
	})
}

func TestRequestIDPropagation(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc-123" {
		t.Errorf("X-Request-ID = %q, want req-abc-123", got)
	}

	// Generated when absent
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}
}
