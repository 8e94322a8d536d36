package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxpert/pubcfg/db"
	"github.com/maxpert/pubcfg/model"
)

func setupServer(t *testing.T) *http.ServeMux {
	tmpDir := t.TempDir()

	store, err := db.NewStore(filepath.Join(tmpDir, "publishers.db"), 5000)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	audits := db.NewAuditLogStore(store)
	publishers := db.NewPublisherStore(store, audits, "tester")

	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHandlers(publishers, audits), "", false)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func samplePayload(id string) map[string]interface{} {
	return map[string]interface{}{
		"publisherId":        id,
		"aliasName":          "Acme",
		"filename":           "acme.json",
		"isActive":           true,
		"publisherDashboard": "https://d",
		"monitorDashboard":   "https://m",
		"qaStatusDashboard":  "https://q",
		"pages": []map[string]string{
			{"pageType": "article", "selector": ".w", "position": "top"},
		},
	}
}

func TestSavePublisher_CreateThenGet(t *testing.T) {
	mux := setupServer(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/publishers/p1", samplePayload("p1"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = doRequest(t, mux, http.MethodGet, "/api/publishers/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pub model.Publisher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pub))
	require.Equal(t, "p1", pub.PublisherID)
	require.Equal(t, "Acme", pub.AliasName)
	require.Len(t, pub.Pages, 1)
}

func TestSavePublisher_IDMismatch(t *testing.T) {
	mux := setupServer(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/publishers/p1", samplePayload("other"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Publisher ID mismatch")
}

func TestSavePublisher_InvalidBody(t *testing.T) {
	mux := setupServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/publishers/p1", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavePublisher_UpdatePath(t *testing.T) {
	mux := setupServer(t)

	rec := doRequest(t, mux, http.MethodPut, "/api/publishers/p1", samplePayload("p1"))
	require.Equal(t, http.StatusOK, rec.Code)

	payload := samplePayload("p1")
	payload["aliasName"] = "Acme Inc"
	rec = doRequest(t, mux, http.MethodPut, "/api/publishers/p1", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/publishers/p1", nil)
	var pub model.Publisher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pub))
	require.Equal(t, "Acme Inc", pub.AliasName)

	// The update produced exactly one new audit entry
	rec = doRequest(t, mux, http.MethodGet, "/api/publishers/p1/audit-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var trail model.AuditLogList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trail))
	require.Len(t, trail.Data, 2)
	require.Equal(t, model.AuditActionUpdate, trail.Data[0].Action)
	require.Equal(t, "Alias Name", *trail.Data[0].FieldName)
}

func TestGetPublisher_NotFound(t *testing.T) {
	mux := setupServer(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/publishers/absent", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Publisher config not found")
}

func TestDeletePublisher(t *testing.T) {
	mux := setupServer(t)

	rec := doRequest(t, mux, http.MethodDelete, "/api/publishers/absent", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, mux, http.MethodPut, "/api/publishers/p1", samplePayload("p1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodDelete, "/api/publishers/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = doRequest(t, mux, http.MethodGet, "/api/publishers/p1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPublishers_DefaultsAndClamps(t *testing.T) {
	mux := setupServer(t)

	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("p%02d", i)
		payload := samplePayload(id)
		payload["aliasName"] = fmt.Sprintf("Alias %02d", i)
		rec := doRequest(t, mux, http.MethodPut, "/api/publishers/"+id, payload)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Default page size is 9
	rec := doRequest(t, mux, http.MethodGet, "/api/publishers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.PublisherList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Data, 9)
	require.Equal(t, 12, result.Pagination.TotalItems)
	require.Equal(t, 2, result.Pagination.TotalPages)

	// page below 1 clamps to 1
	rec = doRequest(t, mux, http.MethodGet, "/api/publishers?page=0&limit=5", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 1, result.Pagination.CurrentPage)
	require.Len(t, result.Data, 5)

	// limit above 100 clamps to 100
	rec = doRequest(t, mux, http.MethodGet, "/api/publishers?limit=500", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 100, result.Pagination.PageSize)
	require.Len(t, result.Data, 12)
}

func TestListPublishers_SearchAndActive(t *testing.T) {
	mux := setupServer(t)

	payload := samplePayload("p1")
	payload["aliasName"] = "Acme News"
	doRequest(t, mux, http.MethodPut, "/api/publishers/p1", payload)

	payload = samplePayload("p2")
	payload["aliasName"] = "Globex"
	payload["isActive"] = false
	doRequest(t, mux, http.MethodPut, "/api/publishers/p2", payload)

	rec := doRequest(t, mux, http.MethodGet, "/api/publishers?search=Acme", nil)
	var result model.PublisherList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Data, 1)
	require.Equal(t, "p1", result.Data[0].PublisherID)

	rec = doRequest(t, mux, http.MethodGet, "/api/publishers?isActive=false", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Data, 1)
	require.Equal(t, "p2", result.Data[0].PublisherID)
}

func TestGlobalAuditLogs(t *testing.T) {
	mux := setupServer(t)

	doRequest(t, mux, http.MethodPut, "/api/publishers/p1", samplePayload("p1"))
	payload := samplePayload("p2")
	payload["aliasName"] = "Globex"
	doRequest(t, mux, http.MethodPut, "/api/publishers/p2", payload)

	rec := doRequest(t, mux, http.MethodGet, "/api/audit-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var trail model.AuditLogList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trail))
	require.Len(t, trail.Data, 2)
}

func TestHealth(t *testing.T) {
	mux := setupServer(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
