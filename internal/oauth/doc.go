// Package oauth exchanges a caller's bearer token for a token the server can
// present to a downstream Kusto cluster.
//
// The exchange is the Entra ID On-Behalf-Of (OBO) flow. The server is an Entra
// application whose client credential is not a secret but a token issued to a
// user-assigned managed identity for the api://AzureADTokenExchange audience
// (workload identity federation):
//
//	exchanger, err := oauth.NewOBOExchanger(oauth.OBOConfig{
//		TenantID:                tenantID,
//		EntraAppClientID:        appClientID,
//		ManagedIdentityClientID: umiClientID,
//	})
//	token, err := exchanger.Exchange(ctx, callerToken, "https://help.kusto.windows.net")
//
// Missing identifiers are reported as ErrMissingEntraAppClientID,
// ErrMissingTenantID or ErrMissingManagedIdentityClientID. Every runtime
// failure is an *ExchangeError; the HTTP layer turns it into a 401 without
// retrying.
package oauth
