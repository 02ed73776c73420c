package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dekarrin/voxgraph"
)

func testConfig(t *testing.T, password string) Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	require.NoError(t, err)

	return Config{
		TokenSecret:       []byte(strings.Repeat("x", 32)),
		AdminPasswordHash: string(hash),
		UnauthDelayMillis: -1,
	}.FillDefaults()
}

func testServer(t *testing.T, grammar string, password string) *Server {
	t.Helper()
	engine, err := voxgraph.Load(strings.NewReader(grammar), voxgraph.Options{})
	require.NoError(t, err)

	srv, err := New(engine, testConfig(t, password), voxgraph.Options{})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func Test_Healthz_listsIntents(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv := testServer(t, "[Greet]\nhello there", "secret")
	w := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)
	require.Equal(http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal("ok", resp.Status)
	assert.Equal([]string{"Greet"}, resp.Intents)
}

func Test_Recognize_returnsMatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv := testServer(t, "[Greet]\nhello there", "secret")
	w := doJSON(t, srv, http.MethodPost, "/recognize", RecognizeRequest{Text: "hello there"}, nil)
	require.Equal(http.StatusOK, w.Code)

	var resp RecognizeResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(resp.Results, 1)
	assert.Equal("Greet", resp.Results[0].Intent.Name)
	assert.NotEmpty(resp.RequestID)
}

func Test_Recognize_emptyTextIsBadRequest(t *testing.T) {
	require := require.New(t)

	srv := testServer(t, "[Greet]\nhello there", "secret")
	w := doJSON(t, srv, http.MethodPost, "/recognize", RecognizeRequest{Text: ""}, nil)
	require.Equal(http.StatusBadRequest, w.Code)
}

func Test_AdminEndpoints_requireBearerToken(t *testing.T) {
	require := require.New(t)

	srv := testServer(t, "[Greet]\nhello there", "secret")
	w := doJSON(t, srv, http.MethodGet, "/admin/graph", nil, nil)
	require.Equal(http.StatusUnauthorized, w.Code)
}

func Test_AdminLoginThenReload(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv := testServer(t, "[Greet]\nhello there", "hunter2")

	loginW := doJSON(t, srv, http.MethodPost, "/admin/login", LoginRequest{Password: "hunter2"}, nil)
	require.Equal(http.StatusOK, loginW.Code)

	var login LoginResponse
	require.NoError(json.Unmarshal(loginW.Body.Bytes(), &login))
	require.NotEmpty(login.Token)

	headers := map[string]string{"Authorization": "Bearer " + login.Token}

	reloadW := doJSON(t, srv, http.MethodPost, "/admin/reload", ReloadRequest{Grammar: "[Bye]\ngoodbye"}, headers)
	require.Equal(http.StatusOK, reloadW.Code)

	recW := doJSON(t, srv, http.MethodPost, "/recognize", RecognizeRequest{Text: "goodbye"}, nil)
	require.Equal(http.StatusOK, recW.Code)

	var resp RecognizeResponse
	require.NoError(json.Unmarshal(recW.Body.Bytes(), &resp))
	require.Len(resp.Results, 1)
	assert.Equal("Bye", resp.Results[0].Intent.Name)

	graphW := doJSON(t, srv, http.MethodGet, "/admin/graph", nil, headers)
	require.Equal(http.StatusOK, graphW.Code)
}

func Test_AdminLogin_wrongPasswordIsUnauthorized(t *testing.T) {
	require := require.New(t)

	srv := testServer(t, "[Greet]\nhello there", "hunter2")
	w := doJSON(t, srv, http.MethodPost, "/admin/login", LoginRequest{Password: "wrong"}, nil)
	require.Equal(http.StatusUnauthorized, w.Code)
}
