package oauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssertion struct {
	token  string
	err    error
	scopes []string
	calls  int
}

func (f *fakeAssertion) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.calls++
	f.scopes = opts.Scopes
	if f.err != nil {
		return azcore.AccessToken{}, f.err
	}
	return azcore.AccessToken{Token: f.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

type fakeOBOClient struct {
	authority     string
	clientID      string
	assertion     string
	userAssertion string
	scopes        []string
	token         string
	err           error
}

func (f *fakeOBOClient) factory(authority, clientID string, assertion AssertionFunc) (onBehalfOfClient, error) {
	f.authority = authority
	f.clientID = clientID
	a, err := assertion(context.Background())
	if err != nil {
		return nil, err
	}
	f.assertion = a
	return f, nil
}

func (f *fakeOBOClient) AcquireTokenOnBehalfOf(_ context.Context, userAssertion string, scopes []string) (string, error) {
	f.userAssertion = userAssertion
	f.scopes = scopes
	return f.token, f.err
}

func validConfig() OBOConfig {
	return OBOConfig{
		TenantID:                "tenant-1",
		EntraAppClientID:        "app-1",
		ManagedIdentityClientID: "umi-1",
	}
}

func TestOBOConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config OBOConfig
		want   error
	}{
		{"valid", validConfig(), nil},
		{"missing app id", OBOConfig{TenantID: "t", ManagedIdentityClientID: "m"}, ErrMissingEntraAppClientID},
		{"missing tenant", OBOConfig{EntraAppClientID: "a", ManagedIdentityClientID: "m"}, ErrMissingTenantID},
		{"missing managed identity", OBOConfig{EntraAppClientID: "a", TenantID: "t"}, ErrMissingManagedIdentityClientID},
		{"app id reported first", OBOConfig{}, ErrMissingEntraAppClientID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOBOConfig_Authority(t *testing.T) {
	assert.Equal(t, "https://login.microsoftonline.com/tenant-1", validConfig().Authority())

	cfg := validConfig()
	cfg.AuthorityHost = "https://login.example.com/"
	assert.Equal(t, "https://login.example.com/tenant-1", cfg.Authority())
}

func TestNewOBOExchanger_RejectsIncompleteConfig(t *testing.T) {
	_, err := NewOBOExchanger(OBOConfig{TenantID: "t", EntraAppClientID: "a"}, WithAssertionCredential(&fakeAssertion{}))
	assert.ErrorIs(t, err, ErrMissingManagedIdentityClientID)
}

func TestOBOExchanger_Exchange(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		assertion := &fakeAssertion{token: "mi-token"}
		client := &fakeOBOClient{token: "downstream-token"}
		exchanger, err := NewOBOExchanger(validConfig(), WithAssertionCredential(assertion), withClientFactory(client.factory))
		require.NoError(t, err)

		token, err := exchanger.Exchange(context.Background(), "user-token", "https://help.kusto.windows.net/")
		require.NoError(t, err)

		assert.Equal(t, "downstream-token", token)
		assert.Equal(t, []string{"api://AzureADTokenExchange/.default"}, assertion.scopes)
		assert.Equal(t, "https://login.microsoftonline.com/tenant-1", client.authority)
		assert.Equal(t, "app-1", client.clientID)
		assert.Equal(t, "mi-token", client.assertion)
		assert.Equal(t, "user-token", client.userAssertion)
		assert.Equal(t, []string{"https://help.kusto.windows.net/.default"}, client.scopes)
	})

	t.Run("managed identity failure", func(t *testing.T) {
		cause := errors.New("imds unreachable")
		client := &fakeOBOClient{token: "never"}
		exchanger, err := NewOBOExchanger(validConfig(), WithAssertionCredential(&fakeAssertion{err: cause}), withClientFactory(client.factory))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "user-token", DefaultAudience)
		require.Error(t, err)
		assert.True(t, IsExchangeError(err))
		assert.ErrorIs(t, err, cause)
		assert.Empty(t, client.userAssertion)
	})

	t.Run("provider rejection", func(t *testing.T) {
		cause := errors.New("AADSTS50013: assertion failed signature validation")
		client := &fakeOBOClient{err: cause}
		exchanger, err := NewOBOExchanger(validConfig(), WithAssertionCredential(&fakeAssertion{token: "mi"}), withClientFactory(client.factory))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "user-token", DefaultAudience)
		var exchangeErr *ExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		assert.Equal(t, stageAcquire, exchangeErr.Stage)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("empty access token", func(t *testing.T) {
		client := &fakeOBOClient{}
		exchanger, err := NewOBOExchanger(validConfig(), WithAssertionCredential(&fakeAssertion{token: "mi"}), withClientFactory(client.factory))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "user-token", DefaultAudience)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown error")
	})

	t.Run("empty user token", func(t *testing.T) {
		assertion := &fakeAssertion{token: "mi"}
		exchanger, err := NewOBOExchanger(validConfig(), WithAssertionCredential(assertion), withClientFactory((&fakeOBOClient{}).factory))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "", DefaultAudience)
		assert.True(t, IsExchangeError(err))
		assert.Zero(t, assertion.calls)
	})

	t.Run("client construction failure", func(t *testing.T) {
		cause := errors.New("invalid authority")
		factory := func(string, string, AssertionFunc) (onBehalfOfClient, error) { return nil, cause }
		exchanger, err := NewOBOExchanger(validConfig(), WithAssertionCredential(&fakeAssertion{token: "mi"}), withClientFactory(factory))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "user-token", DefaultAudience)
		var exchangeErr *ExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		assert.Equal(t, stageClient, exchangeErr.Stage)
	})
}

func TestOBOExchanger_ZeroConfigFailsAsExchangeError(t *testing.T) {
	exchanger := &OBOExchanger{assertion: &fakeAssertion{token: "mi"}}

	_, err := exchanger.Exchange(context.Background(), "user-token", DefaultAudience)
	assert.True(t, IsExchangeError(err))
	assert.ErrorIs(t, err, ErrMissingEntraAppClientID)
}

func TestNewExchanger_DefersConfigurationErrors(t *testing.T) {
	exchanger := NewExchanger(OBOConfig{EntraAppClientID: "app"}, WithAssertionCredential(&fakeAssertion{token: "mi"}))

	_, err := exchanger.Exchange(context.Background(), "user-token", DefaultAudience)
	assert.True(t, IsExchangeError(err))
	assert.ErrorIs(t, err, ErrMissingTenantID)
}

func TestNewExchanger_ReturnsWorkingExchanger(t *testing.T) {
	client := &fakeOBOClient{token: "downstream"}
	exchanger := NewExchanger(validConfig(), WithAssertionCredential(&fakeAssertion{token: "mi"}), withClientFactory(client.factory))

	token, err := exchanger.Exchange(context.Background(), "user-token", DefaultAudience)
	require.NoError(t, err)
	assert.Equal(t, "downstream", token)
}
