package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtimcp/internal/credential"
	"rtimcp/internal/oauth"
	"rtimcp/pkg/logging"
)

type fakeExchanger struct {
	token    string
	err      error
	gotToken string
	gotAud   string
}

func (f *fakeExchanger) Exchange(_ context.Context, userToken, resource string) (string, error) {
	f.gotToken = userToken
	f.gotAud = resource
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func makeJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(body) + ".sig"
}

// tokenEcho writes the token found in the request context.
func tokenEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := credential.TokenFromContext(r.Context())
		if !ok {
			token = "<none>"
		}
		_, _ = w.Write([]byte(token))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGate_MissingHeader(t *testing.T) {
	gate := NewGate(GateOptions{})
	rec := httptest.NewRecorder()
	gate.Wrap(tokenEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{
		"error":   "unauthorized",
		"message": "Authorization header required",
	}, decodeError(t, rec))
}

func TestGate_EmptyBearerIsMissing(t *testing.T) {
	gate := NewGate(GateOptions{})
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	gate.Wrap(tokenEcho()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header required", decodeError(t, rec)["message"])
}

func TestGate_PassThroughToken(t *testing.T) {
	gate := NewGate(GateOptions{})

	for _, header := range []string{"Bearer abc.def.ghi", "bearer abc.def.ghi", "BEARER abc.def.ghi", "abc.def.ghi"} {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			gate.Wrap(tokenEcho()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "abc.def.ghi", rec.Body.String())
		})
	}
}

func TestGate_ExchangesToken(t *testing.T) {
	exchanger := &fakeExchanger{token: makeJWT(t, map[string]any{"aud": "https://kusto.kusto.windows.net", "tid": "t1", "scp": "user_impersonation"})}
	gate := NewGate(GateOptions{Exchanger: exchanger, Audience: "https://help.kusto.windows.net"})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	gate.Wrap(tokenEcho()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exchanger.token, rec.Body.String())
	assert.Equal(t, "user-token", exchanger.gotToken)
	assert.Equal(t, "https://help.kusto.windows.net", exchanger.gotAud)
}

func TestGate_DefaultAudience(t *testing.T) {
	exchanger := &fakeExchanger{token: "x"}
	gate := NewGate(GateOptions{Exchanger: exchanger})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	gate.Wrap(tokenEcho()).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "https://kusto.kusto.windows.net", exchanger.gotAud)
}

func TestGate_ExchangeFailure(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	gate := NewGate(GateOptions{Exchanger: &fakeExchanger{err: errors.New("aadsts error")}})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	gate.Wrap(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]string{
		"error":   "unauthorized",
		"message": "Unauthorized to get the required token to access the resource",
	}, decodeError(t, rec))
}

func TestGate_EmptyExchangedToken(t *testing.T) {
	logs := captureLogs(t)
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	gate := NewGate(GateOptions{Exchanger: &fakeExchanger{token: ""}})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	gate.Wrap(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgExchangeFailed, decodeError(t, rec)["message"])
	assert.Contains(t, logs.String(), "exchanger returned an empty token")
}

func TestGate_ExchangeFailureLogs(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		want string
	}{
		"exchange error": {
			err:  &oauth.ExchangeError{Stage: "acquire token", Err: errors.New("AADSTS50013")},
			want: "On-behalf-of exchange failed",
		},
		"other error": {
			err:  errors.New("boom"),
			want: "Token exchanger failed unexpectedly",
		},
	} {
		t.Run(name, func(t *testing.T) {
			logs := captureLogs(t)
			gate := NewGate(GateOptions{Exchanger: &fakeExchanger{err: tc.err}})

			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			req.Header.Set("Authorization", "Bearer user-token")
			rec := httptest.NewRecorder()
			gate.Wrap(tokenEcho()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, logs.String(), tc.want)
		})
	}
}

func TestGate_BypassAndPreflight(t *testing.T) {
	gate := NewGate(GateOptions{BypassPaths: []string{"/health"}})

	rec := httptest.NewRecorder()
	gate.Wrap(tokenEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<none>", rec.Body.String())

	rec = httptest.NewRecorder()
	gate.Wrap(tokenEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/mcp", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_RecoversPanic(t *testing.T) {
	gate := NewGate(GateOptions{})
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { gate.Wrap(next).ServeHTTP(rec, req) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]string{
		"error":   "server_error",
		"message": "Internal server error",
	}, decodeError(t, rec))
}

func TestGate_RepanicsAbortHandler(t *testing.T) {
	gate := NewGate(GateOptions{})
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer t")
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		gate.Wrap(next).ServeHTTP(httptest.NewRecorder(), req)
	})
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	sr.WriteHeader(http.StatusTeapot)
	sr.WriteHeader(http.StatusOK)
	sr.Flush()

	assert.Equal(t, http.StatusTeapot, sr.status)
	assert.True(t, sr.wroteHeader)
	assert.True(t, rec.Flushed)
	assert.Same(t, rec, sr.Unwrap())
}

func TestParseClaims(t *testing.T) {
	t.Run("scopes", func(t *testing.T) {
		claims := parseClaims(makeJWT(t, map[string]any{"aud": "api://x", "tid": "tenant", "scp": "a b"}))
		assert.Equal(t, tokenClaims{Audience: "api://x", TenantID: "tenant", Scopes: "a b"}, claims)
	})

	t.Run("roles and audience list", func(t *testing.T) {
		claims := parseClaims(makeJWT(t, map[string]any{"aud": []string{"one", "two"}, "roles": []string{"Reader"}}))
		assert.Equal(t, tokenClaims{Audience: "one two", TenantID: "N/A", Scopes: "Reader"}, claims)
	})

	t.Run("padded payload", func(t *testing.T) {
		payload := base64.URLEncoding.EncodeToString([]byte(`{"tid":"padded"}`))
		claims := parseClaims("e30." + payload + ".sig")
		assert.Equal(t, "padded", claims.TenantID)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.Equal(t, tokenClaims{Audience: "N/A", TenantID: "N/A", Scopes: "N/A"}, parseClaims("not-a-jwt"))
	})
}

func TestParseClaims_LogsDecodeFailures(t *testing.T) {
	for name, tc := range map[string]struct {
		token string
		want  string
	}{
		"segments": {token: "not-a-jwt", want: "expected 3 segments, got 1"},
		"base64":   {token: "e30.!!!.sig", want: "payload is not base64url"},
		"json":     {token: "e30." + base64.RawURLEncoding.EncodeToString([]byte("[1")) + ".sig", want: "payload is not JSON"},
	} {
		t.Run(name, func(t *testing.T) {
			logs := captureLogs(t)
			parseClaims(tc.token)
			assert.Contains(t, logs.String(), "Cannot read token claims")
			assert.Contains(t, logs.String(), tc.want)
		})
	}
}

// captureLogs routes process logging into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.Init(logging.LevelDebug, logging.FormatText, &buf)
	t.Cleanup(func() { logging.Init(logging.LevelInfo, logging.FormatText, io.Discard) })
	return &buf
}
