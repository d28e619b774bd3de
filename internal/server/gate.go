package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"rtimcp/internal/credential"
	"rtimcp/internal/metrics"
	"rtimcp/internal/oauth"
	"rtimcp/pkg/logging"
)

const (
	msgHeaderRequired  = "Authorization header required"
	msgExchangeFailed  = "Unauthorized to get the required token to access the resource"
	msgInternalError   = "Internal server error"
	errCodeUnauthorize = "unauthorized"
	errCodeServerError = "server_error"
)

var errEmptyExchangedToken = errors.New("exchanger returned an empty token")

// GateOptions configures the auth gate.
type GateOptions struct {
	// Exchanger swaps the caller token for a cluster token. Nil forwards the
	// caller token unchanged.
	Exchanger oauth.Exchanger

	// Audience is the resource the exchanged token is requested for.
	Audience string

	// BypassPaths are served without authentication.
	BypassPaths []string
}

// Gate authenticates MCP requests. It requires a bearer token, optionally
// exchanges it on behalf of the caller and publishes the result in the
// request context for the Kusto connections.
type Gate struct {
	exchanger oauth.Exchanger
	audience  string
	bypass    map[string]bool
}

// NewGate creates a gate.
func NewGate(opts GateOptions) *Gate {
	bypass := make(map[string]bool, len(opts.BypassPaths))
	for _, p := range opts.BypassPaths {
		bypass[p] = true
	}
	audience := opts.Audience
	if audience == "" {
		audience = oauth.DefaultAudience
	}
	return &Gate{
		exchanger: opts.Exchanger,
		audience:  audience,
		bypass:    bypass,
	}
}

// Wrap returns next guarded by the gate.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			metrics.ObserveAuth(metrics.AuthPanic)
			logging.Error("AuthGate", errors.New("panic"), "Request %s %s panicked: %v", r.Method, r.URL.Path, rec)
			if !recorder.wroteHeader {
				writeJSONError(recorder, http.StatusInternalServerError, errCodeServerError, msgInternalError)
			}
		}()

		g.serve(recorder, r, next)
	})
}

func (g *Gate) serve(w *statusRecorder, r *http.Request, next http.Handler) {
	if r.Method == http.MethodOptions || g.bypass[r.URL.Path] {
		metrics.ObserveAuth(metrics.AuthBypassed)
		next.ServeHTTP(w, r)
		return
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		metrics.ObserveAuth(metrics.AuthMissingHeader)
		logging.Debug("AuthGate", "Rejected %s %s: no authorization header", r.Method, r.URL.Path)
		writeJSONError(w, http.StatusUnauthorized, errCodeUnauthorize, msgHeaderRequired)
		return
	}

	logging.Info("AuthGate", "Request URI: %s, Method: %s", r.URL.String(), r.Method)

	if g.exchanger != nil {
		exchanged, err := g.exchanger.Exchange(r.Context(), token, g.audience)
		if err == nil && exchanged == "" {
			err = errEmptyExchangedToken
		}
		if err != nil {
			metrics.ObserveAuth(metrics.AuthExchangeError)
			if oauth.IsExchangeError(err) {
				logging.Error("AuthGate", err, "On-behalf-of exchange failed")
			} else {
				logging.Error("AuthGate", err, "Token exchanger failed unexpectedly")
			}
			writeJSONError(w, http.StatusUnauthorized, errCodeUnauthorize, msgExchangeFailed)
			return
		}
		token = exchanged
	}

	ctx := credential.WithToken(r.Context(), token)

	claims := parseClaims(token)
	logging.Info("AuthGate", "Token audience: %s, tenant ID: %s, scopes/roles: %s",
		claims.Audience, claims.TenantID, claims.Scopes)

	metrics.ObserveAuth(metrics.AuthAccepted)
	next.ServeHTTP(w, r.WithContext(ctx))
	logging.Info("AuthGate", "Response status code: %d", w.status)
}

// bearerToken strips a case-insensitive "Bearer " prefix. Headers without the
// prefix are taken as the raw token.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		header = header[len(prefix):]
	}
	return strings.TrimSpace(header)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(body []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(body)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
