package oauth

import (
	"errors"
	"fmt"
)

// Configuration sentinels, reported in this order when several are missing.
var (
	ErrMissingEntraAppClientID        = errors.New("entra app client id is not configured")
	ErrMissingTenantID                = errors.New("azure tenant id is not configured")
	ErrMissingManagedIdentityClientID = errors.New("user-assigned managed identity client id is not configured")
)

// ExchangeError is the single failure category returned by Exchange. Stage
// names the step that failed; the cause stays reachable through Unwrap.
type ExchangeError struct {
	Stage string
	Err   error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("on-behalf-of exchange failed (%s): %v", e.Stage, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// IsExchangeError reports whether err is, or wraps, an *ExchangeError.
func IsExchangeError(err error) bool {
	var exchangeErr *ExchangeError
	return errors.As(err, &exchangeErr)
}

const (
	stageConfig    = "config"
	stageAssertion = "managed identity assertion"
	stageClient    = "confidential client"
	stageAcquire   = "acquire token"
)
