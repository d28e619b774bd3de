package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"rtimcp/pkg/logging"
)

// tokenClaims is the subset of JWT claims logged for a request.
type tokenClaims struct {
	Audience string
	TenantID string
	Scopes   string
}

// parseClaims reads the payload of a JWT without verifying it. The cluster
// validates the token; the claims are only logged. Any failure yields empty
// claims.
func parseClaims(token string) tokenClaims {
	claims := decodePayload(token)
	scopes := claims["scp"]
	if scopes == nil {
		scopes = claims["roles"]
	}
	return tokenClaims{
		Audience: claimString(claims["aud"]),
		TenantID: claimString(claims["tid"]),
		Scopes:   claimString(scopes),
	}
}

func decodePayload(token string) map[string]any {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err == nil {
		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			return claims
		}
	}

	// Some issuers pad the payload, which the strict parser rejects.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		logging.Warn("AuthGate", "Cannot read token claims: expected 3 segments, got %d", len(parts))
		return map[string]any{}
	}
	payload := strings.TrimRight(parts[1], "=")
	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		logging.Warn("AuthGate", "Cannot read token claims: payload is not base64url: %v", err)
		return map[string]any{}
	}
	claims := map[string]any{}
	if err := json.Unmarshal(decoded, &claims); err != nil {
		logging.Warn("AuthGate", "Cannot read token claims: payload is not JSON: %v", err)
		return map[string]any{}
	}
	return claims
}

func claimString(v any) string {
	switch x := v.(type) {
	case nil:
		return "N/A"
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, " ")
	case []string:
		return strings.Join(x, " ")
	default:
		return fmt.Sprint(x)
	}
}
