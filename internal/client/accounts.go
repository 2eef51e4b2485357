package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Account is a single record from the external identity provider's admin
// listing. Only the email matters to this service.
type Account struct {
	Email string `json:"email"`
}

// AccountsClient fetches the full account listing from the main
// application's identity admin API. Used only by the sync-joined sweep.
type AccountsClient struct {
	http *resty.Client
}

// NewAccountsClient builds a client for the accounts admin API.
func NewAccountsClient(baseURL, serviceKey string, timeout time.Duration) *AccountsClient {
	httpc := resty.New().SetBaseURL(baseURL)
	if timeout > 0 {
		httpc.SetTimeout(timeout)
	}
	if serviceKey != "" {
		httpc.SetAuthToken(serviceKey)
	}
	return &AccountsClient{http: httpc}
}

type listAccountsResponse struct {
	Users []Account `json:"users"`
}

// ListAllAccounts returns every account known to the identity provider.
func (c *AccountsClient) ListAllAccounts(ctx context.Context) ([]Account, error) {
	var out listAccountsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/admin/users")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list accounts: provider returned %s", resp.Status())
	}
	return out.Users, nil
}
