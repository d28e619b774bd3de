package oauth

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"
)

func newManagedIdentityCredential(clientID string) (azcore.TokenCredential, error) {
	return azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
		ID: azidentity.ClientID(clientID),
	})
}

type msalClient struct {
	client confidential.Client
}

func newMSALClient(authority, clientID string, assertion AssertionFunc) (onBehalfOfClient, error) {
	cred := confidential.NewCredFromAssertionCallback(
		func(ctx context.Context, _ confidential.AssertionRequestOptions) (string, error) {
			return assertion(ctx)
		},
	)
	client, err := confidential.New(authority, clientID, cred)
	if err != nil {
		return nil, err
	}
	return &msalClient{client: client}, nil
}

func (c *msalClient) AcquireTokenOnBehalfOf(ctx context.Context, userAssertion string, scopes []string) (string, error) {
	result, err := c.client.AcquireTokenOnBehalfOf(ctx, userAssertion, scopes)
	if err != nil {
		return "", err
	}
	return result.AccessToken, nil
}
