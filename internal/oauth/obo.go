package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"rtimcp/internal/metrics"
	"rtimcp/pkg/logging"
)

const (
	// DefaultAuthorityHost is the Entra ID login endpoint.
	DefaultAuthorityHost = "https://login.microsoftonline.com"

	// DefaultTenantID is the tenant used when none is configured.
	DefaultTenantID = "72f988bf-86f1-41af-91ab-2d7cd011db47"

	// DefaultAudience is the resource the exchanged token is requested for.
	DefaultAudience = "https://kusto.kusto.windows.net"

	// tokenExchangeScope is the audience of the managed identity token that
	// serves as the confidential client's assertion.
	tokenExchangeScope = "api://AzureADTokenExchange/.default"
)

// Exchanger swaps a caller's token for one scoped to a downstream resource.
type Exchanger interface {
	Exchange(ctx context.Context, userToken, resource string) (string, error)
}

// OBOConfig holds the identities involved in the exchange.
type OBOConfig struct {
	TenantID                string
	EntraAppClientID        string
	ManagedIdentityClientID string

	// AuthorityHost defaults to DefaultAuthorityHost.
	AuthorityHost string
}

// Validate reports the first missing identifier.
func (c OBOConfig) Validate() error {
	if c.EntraAppClientID == "" {
		return ErrMissingEntraAppClientID
	}
	if c.TenantID == "" {
		return ErrMissingTenantID
	}
	if c.ManagedIdentityClientID == "" {
		return ErrMissingManagedIdentityClientID
	}
	return nil
}

// Authority returns the tenant-specific authority URL.
func (c OBOConfig) Authority() string {
	host := c.AuthorityHost
	if host == "" {
		host = DefaultAuthorityHost
	}
	return strings.TrimRight(host, "/") + "/" + c.TenantID
}

// AssertionFunc returns a signed client assertion for the confidential client.
type AssertionFunc func(ctx context.Context) (string, error)

// onBehalfOfClient is the part of a confidential client the exchange needs.
type onBehalfOfClient interface {
	AcquireTokenOnBehalfOf(ctx context.Context, userAssertion string, scopes []string) (string, error)
}

type clientFactory func(authority, clientID string, assertion AssertionFunc) (onBehalfOfClient, error)

// OBOExchanger performs the On-Behalf-Of flow with a user-assigned managed
// identity as the client credential:
//
//  1. get a managed identity token for api://AzureADTokenExchange
//  2. build a confidential client that presents it as its assertion
//  3. redeem the caller's token for {resource}/.default
//
// Thread-safe: Yes. Every exchange builds its own confidential client, so no
// token cache is shared between callers.
type OBOExchanger struct {
	config    OBOConfig
	assertion azcore.TokenCredential
	newClient clientFactory
}

// OBOExchangerOption customizes an OBOExchanger.
type OBOExchangerOption func(*OBOExchanger)

// WithAssertionCredential replaces the managed identity credential.
func WithAssertionCredential(cred azcore.TokenCredential) OBOExchangerOption {
	return func(e *OBOExchanger) {
		e.assertion = cred
	}
}

func withClientFactory(factory clientFactory) OBOExchangerOption {
	return func(e *OBOExchanger) {
		e.newClient = factory
	}
}

// NewOBOExchanger validates the configuration and returns an exchanger.
// Configuration errors are one of the ErrMissing sentinels.
func NewOBOExchanger(config OBOConfig, opts ...OBOExchangerOption) (*OBOExchanger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &OBOExchanger{
		config:    config,
		newClient: newMSALClient,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.assertion == nil {
		cred, err := newManagedIdentityCredential(config.ManagedIdentityClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to create managed identity credential: %w", err)
		}
		e.assertion = cred
	}

	return e, nil
}

// Exchange redeems userToken for an access token scoped to resource.
// Every failure is an *ExchangeError.
func (e *OBOExchanger) Exchange(ctx context.Context, userToken, resource string) (string, error) {
	token, err := e.exchange(ctx, userToken, resource)
	metrics.ObserveExchange(err)
	if err != nil {
		logging.Warn("OBO", "Token exchange for %s failed: %v", resource, err)
		return "", err
	}
	logging.Debug("OBO", "Exchanged token %s for resource %s", logging.TruncateToken(userToken), resource)
	return token, nil
}

func (e *OBOExchanger) exchange(ctx context.Context, userToken, resource string) (string, error) {
	if err := e.config.Validate(); err != nil {
		return "", &ExchangeError{Stage: stageConfig, Err: err}
	}
	if userToken == "" {
		return "", &ExchangeError{Stage: stageConfig, Err: errors.New("user token is required")}
	}
	resource = strings.TrimRight(strings.TrimSpace(resource), "/")
	if resource == "" {
		return "", &ExchangeError{Stage: stageConfig, Err: errors.New("target resource is required")}
	}

	assertion, err := e.assertion.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenExchangeScope}})
	if err != nil {
		return "", &ExchangeError{Stage: stageAssertion, Err: err}
	}
	if assertion.Token == "" {
		return "", &ExchangeError{Stage: stageAssertion, Err: errors.New("managed identity returned an empty token")}
	}

	client, err := e.newClient(e.config.Authority(), e.config.EntraAppClientID, func(context.Context) (string, error) {
		return assertion.Token, nil
	})
	if err != nil {
		return "", &ExchangeError{Stage: stageClient, Err: err}
	}

	accessToken, err := client.AcquireTokenOnBehalfOf(ctx, userToken, []string{resource + "/.default"})
	if err != nil {
		return "", &ExchangeError{Stage: stageAcquire, Err: err}
	}
	if accessToken == "" {
		return "", &ExchangeError{Stage: stageAcquire, Err: errors.New("unknown error")}
	}
	return accessToken, nil
}

// NewExchanger is NewOBOExchanger with configuration errors deferred: when the
// exchanger cannot be built, every Exchange call fails with an *ExchangeError
// wrapping the cause instead of the process refusing to start.
func NewExchanger(config OBOConfig, opts ...OBOExchangerOption) Exchanger {
	exchanger, err := NewOBOExchanger(config, opts...)
	if err != nil {
		logging.Error("OBO", err, "On-behalf-of exchange is unavailable; authenticated requests will be rejected")
		return unavailableExchanger{err: err}
	}
	return exchanger
}

type unavailableExchanger struct {
	err error
}

func (u unavailableExchanger) Exchange(context.Context, string, string) (string, error) {
	err := &ExchangeError{Stage: stageConfig, Err: u.err}
	metrics.ObserveExchange(err)
	return "", err
}
