package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/auspex/internal/common"
)

func TestAPIHandler_Version(t *testing.T) {
	h := NewAPIHandler()

	req := httptest.NewRequest("GET", "/api/version", nil)
	rec := httptest.NewRecorder()
	h.VersionHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "auspex", resp["service"])
	assert.Equal(t, common.GetVersion(), resp["version"])
	assert.Equal(t, common.GetGitCommit(), resp["commit"])
}

func TestAPIHandler_Health(t *testing.T) {
	h := NewAPIHandler()

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["uptime"])
}

func TestAPIHandler_NotFound(t *testing.T) {
	h := NewAPIHandler()

	req := httptest.NewRequest("GET", "/api/nope", nil)
	rec := httptest.NewRecorder()
	h.NotFoundHandler(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/api/nope", resp["path"])
}
