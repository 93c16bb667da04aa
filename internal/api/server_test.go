package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairindex/report"
)

func writeTestReport(t *testing.T, entries []report.Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.WriteJSONAtomic(path, entries))
	return path
}

func floatPtr(f float64) *float64 { return &f }

func testEntries() []report.Entry {
	return []report.Entry{
		{Name: "iPhone 13", Title: "iPhone_13", RepairabilityScore: floatPtr(7.9)},
		{Name: "Pixel 6", Title: "Pixel_6"},
	}
}

func doRequest(t *testing.T, path, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(path, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, writeTestReport(t, testEntries()), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "available", body["report"])
}

func TestHealthWithoutReport(t *testing.T) {
	rec := doRequest(t, filepath.Join(t.TempDir(), "missing.json"), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing", body["report"])
}

func TestGetReport(t *testing.T) {
	rec := doRequest(t, writeTestReport(t, testEntries()), "/api/v1/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var entries []report.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
}

func TestGetReportMissingFile(t *testing.T) {
	rec := doRequest(t, filepath.Join(t.TempDir(), "missing.json"), "/api/v1/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDevice(t *testing.T) {
	path := writeTestReport(t, testEntries())

	rec := doRequest(t, path, "/api/v1/devices/iPhone%2013")
	require.Equal(t, http.StatusOK, rec.Code)

	var entry report.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "iPhone 13", entry.Name)
}

func TestGetDeviceByNormalizedKey(t *testing.T) {
	// The wiki-title spelling resolves to the same device.
	rec := doRequest(t, writeTestReport(t, testEntries()), "/api/v1/devices/iphone_13")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDeviceNotFound(t *testing.T) {
	rec := doRequest(t, writeTestReport(t, testEntries()), "/api/v1/devices/Galaxy%20Fold")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	srv := NewServer(writeTestReport(t, testEntries()), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
