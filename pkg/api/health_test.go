package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/avolpe/searchd/internal/logger"
	"github.com/avolpe/searchd/pkg/search"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter(io.Discard, "ERROR", "text", false)
	os.Exit(m.Run())
}

func writeDataFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write data file: %v", err)
	}
	return path
}

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, "", nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["service"] != "searchd" {
		t.Errorf("Expected service 'searchd', got '%s'", data["service"])
	}
}

func TestReadiness_NoCallback_Returns503(t *testing.T) {
	path := writeDataFile(t, "apple\n")
	engine := search.NewEngine(path, false, nil)
	handler := NewHealthHandler(engine, path, nil)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Error != "search listener not ready" {
		t.Errorf("Expected error 'search listener not ready', got '%s'", resp.Error)
	}
}

func TestReadiness_ListenerNotReady_Returns503(t *testing.T) {
	path := writeDataFile(t, "apple\n")
	engine := search.NewEngine(path, false, nil)
	handler := NewHealthHandler(engine, path, func() bool { return false })
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestReadiness_ListenerReady_ReturnsOK(t *testing.T) {
	path := writeDataFile(t, "apple\n")
	engine := search.NewEngine(path, true, nil)
	handler := NewHealthHandler(engine, path, func() bool { return true })
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["mode"] != "reread" {
		t.Errorf("Expected mode 'reread', got '%v'", data["mode"])
	}
}

func TestFile_Present_ReturnsOK(t *testing.T) {
	path := writeDataFile(t, "apple\nbanana\n")
	engine := search.NewEngine(path, false, nil)
	handler := NewHealthHandler(engine, path, func() bool { return true })
	req := httptest.NewRequest("GET", "/health/file", nil)
	w := httptest.NewRecorder()

	handler.File(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["path"] != path {
		t.Errorf("Expected path '%s', got '%v'", path, data["path"])
	}
	if data["size"].(float64) != float64(len("apple\nbanana\n")) {
		t.Errorf("Unexpected file size: %v", data["size"])
	}
}

func TestFile_Missing_Returns503(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.txt")
	engine := search.NewEngine(path, false, nil)
	handler := NewHealthHandler(engine, path, func() bool { return true })
	req := httptest.NewRequest("GET", "/health/file", nil)
	w := httptest.NewRecorder()

	handler.File(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Error != "data file not readable" {
		t.Errorf("Expected error 'data file not readable', got '%s'", resp.Error)
	}
}

func TestRouter_HealthRoutes(t *testing.T) {
	path := writeDataFile(t, "apple\n")
	engine := search.NewEngine(path, false, nil)
	handler := NewHealthHandler(engine, path, func() bool { return true })
	router := NewRouter(handler)

	for _, route := range []string{"/health", "/health/ready", "/health/file"} {
		req := httptest.NewRequest("GET", route, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Route %s: expected status %d, got %d", route, http.StatusOK, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("Expected redirect from root, got %d", w.Code)
	}
}
