package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tool", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newMux().ServeHTTP(rec, req)
	return rec
}

func TestTool_Eval(t *testing.T) {
	rec := post(t, `{"tool":"eval","params":{
		"expr":{"type":"binop","op":"+","left":{"type":"const","value":3},"right":{"type":"var","name":"a"}},
		"env":{"a":3}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "6", resp["string"])
	assert.Nil(t, resp["error"])
}

func TestTool_EvalKeepsInt64Precision(t *testing.T) {
	rec := post(t, `{"tool":"eval","params":{
		"expr":{"type":"binop","op":"+","left":{"type":"const","value":9007199254740993},"right":{"type":"var","name":"a"}},
		"env":{"a":9223372036854775000}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp["error"])
	// 9007199254740993 + 9223372036854775000 wraps past MaxInt64.
	assert.Equal(t, "-9214364837600035623", resp["string"])
}

func TestTool_UnboundVariableIsToolError(t *testing.T) {
	rec := post(t, `{"tool":"eval","params":{"expr":{"type":"var","name":"z"}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "unbound variable")
}

func TestTool_RejectsUnknownFields(t *testing.T) {
	rec := post(t, `{"tool":"format","params":{},"extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTool_RejectsTrailingData(t *testing.T) {
	rec := post(t, `{"tool":"tool_spec","params":{}} {}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTool_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tool", nil)
	rec := httptest.NewRecorder()
	newMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSchemaAndHealth(t *testing.T) {
	mux := newMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"simplify"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
