package kusto

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"golang.org/x/oauth2"

	"rtimcp/internal/credential"
	"rtimcp/pkg/logging"
)

// bearerTokenLifetime is the expiry reported for a caller token. The real
// expiry is unknown here and validating it is the cluster's job.
const bearerTokenLifetime = 3600 * time.Second

// bearerCredential returns the same caller token for every scope.
type bearerCredential struct {
	source oauth2.TokenSource
}

func newBearerCredential(token string, now time.Time) *bearerCredential {
	return &bearerCredential{
		source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
			Expiry:      now.Add(bearerTokenLifetime),
		}),
	}
}

func (c *bearerCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tok, err := c.source.Token()
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{Token: tok.AccessToken, ExpiresOn: tok.Expiry}, nil
}

// contextCredential resolves the credential on every token request: the
// caller's token from the context when present, the ambient chain otherwise.
// Nothing is cached per caller.
type contextCredential struct {
	ambient func() (azcore.TokenCredential, error)
	now     func() time.Time
}

func (c *contextCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if token, ok := credential.TokenFromContext(ctx); ok {
		return newBearerCredential(token, c.now()).GetToken(ctx, opts)
	}

	ambient, err := c.ambient()
	if err != nil {
		return azcore.AccessToken{}, fmt.Errorf("ambient credential unavailable: %w", err)
	}
	return ambient.GetToken(ctx, opts)
}

// newAmbientCredential builds the machine identity chain: environment,
// workload identity, managed identity, Azure CLI and developer CLI, followed
// by an interactive browser login when enabled.
func newAmbientCredential(interactive bool) (azcore.TokenCredential, error) {
	defaultCred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		logging.Warn("Kusto", "Default Azure credential chain unavailable: %v", err)
		if !interactive {
			return nil, err
		}
	}

	if !interactive {
		return defaultCred, nil
	}

	browserCred, browserErr := azidentity.NewInteractiveBrowserCredential(nil)
	if browserErr != nil {
		if defaultCred != nil {
			return defaultCred, nil
		}
		return nil, browserErr
	}

	sources := []azcore.TokenCredential{browserCred}
	if defaultCred != nil {
		sources = []azcore.TokenCredential{defaultCred, browserCred}
	}
	return azidentity.NewChainedTokenCredential(sources, nil)
}
