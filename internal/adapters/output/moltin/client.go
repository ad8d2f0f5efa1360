package moltin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fishshop/configs"
	"fishshop/internal/domain"

	"github.com/sirupsen/logrus"
)

// ClientAdapter struct - Output adapter for the Moltin commerce API.
// Holds the process-wide bearer credential; every outbound call goes
// through getAuthorization which refreshes the token under a lock when
// its adjusted expiry has passed.
type ClientAdapter struct {
	httpClient   *http.Client
	baseURL      string
	apiVersion   string
	clientID     string
	clientSecret string

	// Credential caching
	tokenMu     sync.RWMutex
	authHeader  string
	tokenExpiry time.Time
}

// NewClientAdapter func - Creates new Moltin client adapter
func NewClientAdapter(config configs.Commerce) (*ClientAdapter, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.moltin.com"
	}

	// Remove trailing slash if present
	baseURL = strings.TrimSuffix(baseURL, "/")

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = "v2"
	}

	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("commerce client credentials are required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if config.Timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	adapter := &ClientAdapter{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiVersion:   apiVersion,
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
	}

	logrus.Infof("Moltin client adapter initialized with base URL: %s, API version: %s", baseURL, apiVersion)

	return adapter, nil
}

// Retry configuration constants
const (
	maxRetryAttempts  = 3
	initialDelay      = 500 * time.Millisecond
	maxDelay          = 5 * time.Second
	backoffMultiplier = 2
)

// tokenSafetyMargin is subtracted from the server-reported expiry to
// account for clock skew and in-flight latency.
const tokenSafetyMargin = 10 * time.Second

// tokenResponse represents the client-credentials exchange response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// getAuthorization returns an Authorization header value backed by a
// credential whose adjusted expiry is still in the future. Check and
// refresh happen under the lock, so concurrent callers cannot trigger
// redundant refreshes.
func (a *ClientAdapter) getAuthorization(ctx context.Context) (string, error) {
	// Fast path: cached credential still valid
	a.tokenMu.RLock()
	if a.authHeader != "" && time.Now().Before(a.tokenExpiry) {
		header := a.authHeader
		a.tokenMu.RUnlock()
		return header, nil
	}
	a.tokenMu.RUnlock()

	a.tokenMu.Lock()
	defer a.tokenMu.Unlock()

	// Double-check after acquiring write lock
	if a.authHeader != "" && time.Now().Before(a.tokenExpiry) {
		return a.authHeader, nil
	}

	form := url.Values{}
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)
	form.Set("grant_type", "client_credentials")

	tokenURL := fmt.Sprintf("%s/oauth/access_token", a.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: token exchange status %d - %s", domain.ErrUpstreamUnavailable, resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("%w: token exchange status %d - %s", domain.ErrUpstreamRejected, resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: token exchange returned no access token", domain.ErrUpstreamRejected)
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	a.authHeader = fmt.Sprintf("%s %s", tokenType, token.AccessToken)
	a.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenSafetyMargin)

	logrus.Infof("Commerce credential refreshed, valid until %s", a.tokenExpiry.Format(time.RFC3339))

	return a.authHeader, nil
}

// retryWithBackoff executes an operation with bounded exponential
// backoff. 4xx responses are returned to the caller for mapping; only
// network failures and 5xx responses are retried.
func (a *ClientAdapter) retryWithBackoff(ctx context.Context, operation func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		resp, err := operation()

		if err != nil {
			// Credential errors carry their own classification
			if errors.Is(err, domain.ErrUpstreamRejected) || errors.Is(err, domain.ErrUpstreamUnavailable) {
				return nil, err
			}
			if !isTransientError(err) {
				return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
			}
			lastErr = err
			logrus.Warnf("Commerce request attempt %d/%d failed: %v, retrying in %v", attempt, maxRetryAttempts, err, delay)
		} else {
			if resp.StatusCode < 500 {
				return resp, nil
			}

			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d - %s", resp.StatusCode, string(body))
			logrus.Warnf("Commerce request attempt %d/%d failed with status %d, retrying in %v", attempt, maxRetryAttempts, resp.StatusCode, delay)
		}

		if attempt < maxRetryAttempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}

			delay = delay * backoffMultiplier
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}

	return nil, fmt.Errorf("%w: %v after %d attempts", domain.ErrUpstreamUnavailable, lastErr, maxRetryAttempts)
}

// isTransientError determines if a request error should be retried
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// doRequest sends an authenticated request and maps non-2xx statuses
// onto the domain error taxonomy. The returned body must be closed by
// the caller.
func (a *ClientAdapter) doRequest(ctx context.Context, method, requestURL string, body []byte) (*http.Response, error) {
	resp, err := a.retryWithBackoff(ctx, func() (*http.Response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return nil, err
		}
		authHeader, err := a.getAuthorization(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", authHeader)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return a.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: status 404 - %s", domain.ErrNotFound, string(respBody))
	}
	return nil, fmt.Errorf("%w: status %d - %s", domain.ErrUpstreamRejected, resp.StatusCode, string(respBody))
}

// versionedURL builds {base}/{version}{path}
func (a *ClientAdapter) versionedURL(format string, args ...interface{}) string {
	return fmt.Sprintf("%s/%s%s", a.baseURL, a.apiVersion, fmt.Sprintf(format, args...))
}

// API response structures for the Moltin JSON API

type productAPI struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       []struct {
		Amount int `json:"amount"`
	} `json:"price"`
	Meta struct {
		DisplayPrice struct {
			WithTax struct {
				Formatted string `json:"formatted"`
			} `json:"with_tax"`
		} `json:"display_price"`
		Stock struct {
			Level int `json:"level"`
		} `json:"stock"`
	} `json:"meta"`
	Relationships struct {
		MainImage struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

type cartItemAPI struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Meta        struct {
		DisplayPrice struct {
			WithTax struct {
				Unit struct {
					Formatted string `json:"formatted"`
				} `json:"unit"`
				Value struct {
					Formatted string `json:"formatted"`
				} `json:"value"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

type apiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (a *ClientAdapter) toProduct(data productAPI) domain.Product {
	product := domain.Product{
		ID:             data.ID,
		Name:           data.Name,
		Description:    data.Description,
		PriceFormatted: data.Meta.DisplayPrice.WithTax.Formatted,
		Availability:   data.Meta.Stock.Level,
		ImageID:        data.Relationships.MainImage.Data.ID,
	}
	if len(data.Price) > 0 {
		product.Price = data.Price[0].Amount
	}
	return product
}

// GetProducts returns the full catalog page
func (a *ClientAdapter) GetProducts(ctx context.Context) ([]domain.Product, error) {
	resp, err := a.doRequest(ctx, http.MethodGet, a.versionedURL("/products"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data []productAPI `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse products response: %w", err)
	}

	products := make([]domain.Product, len(payload.Data))
	for i, data := range payload.Data {
		products[i] = a.toProduct(data)
	}

	logrus.Infof("Listed %d products", len(products))

	return products, nil
}

// GetProduct returns a denormalized view of one product
func (a *ClientAdapter) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	resp, err := a.doRequest(ctx, http.MethodGet, a.versionedURL("/products/%s", productID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data productAPI `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse product response: %w", err)
	}

	product := a.toProduct(payload.Data)
	return &product, nil
}

// GetImageURL resolves an image reference to a fetchable link
func (a *ClientAdapter) GetImageURL(ctx context.Context, imageID string) (string, error) {
	resp, err := a.doRequest(ctx, http.MethodGet, a.versionedURL("/files/%s", imageID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to get image %s: %w", imageID, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			Link struct {
				Href string `json:"href"`
			} `json:"link"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse file response: %w", err)
	}

	return payload.Data.Link.Href, nil
}

// AddCartItem upserts quantity of a product into the session's cart.
// Repeated calls accumulate quantity on the platform side.
func (a *ClientAdapter) AddCartItem(ctx context.Context, sessionKey, productID string, quantity int) error {
	body, err := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cart item: %w", err)
	}

	resp, err := a.doRequest(ctx, http.MethodPost, a.versionedURL("/carts/:%s/items", sessionKey), body)
	if err != nil {
		return fmt.Errorf("failed to add product %s to cart %s: %w", productID, sessionKey, err)
	}
	resp.Body.Close()

	logrus.Infof("Added %d of product %s to cart %s", quantity, productID, sessionKey)

	return nil
}

// RemoveCartItem deletes one cart line by item id
func (a *ClientAdapter) RemoveCartItem(ctx context.Context, sessionKey, cartItemID string) error {
	resp, err := a.doRequest(ctx, http.MethodDelete, a.versionedURL("/carts/:%s/items/%s", sessionKey, cartItemID), nil)
	if err != nil {
		return fmt.Errorf("failed to remove cart item %s from cart %s: %w", cartItemID, sessionKey, err)
	}
	resp.Body.Close()

	return nil
}

// GetCart returns the ordered line items and the formatted grand total
func (a *ClientAdapter) GetCart(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	resp, err := a.doRequest(ctx, http.MethodGet, a.versionedURL("/carts/:%s/items", sessionKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart %s: %w", sessionKey, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data []cartItemAPI `json:"data"`
		Meta struct {
			DisplayPrice struct {
				WithTax struct {
					Formatted string `json:"formatted"`
				} `json:"with_tax"`
			} `json:"display_price"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse cart response: %w", err)
	}

	cart := domain.Cart{
		Items:      make([]domain.CartItem, len(payload.Data)),
		TotalPrice: payload.Meta.DisplayPrice.WithTax.Formatted,
	}
	for i, item := range payload.Data {
		cart.Items[i] = domain.CartItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.Meta.DisplayPrice.WithTax.Unit.Formatted,
			TotalPrice:  item.Meta.DisplayPrice.WithTax.Value.Formatted,
		}
	}

	return &cart, nil
}

// DeleteCart empties the session's cart
func (a *ClientAdapter) DeleteCart(ctx context.Context, sessionKey string) error {
	resp, err := a.doRequest(ctx, http.MethodDelete, a.versionedURL("/carts/:%s", sessionKey), nil)
	if err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", sessionKey, err)
	}
	resp.Body.Close()

	return nil
}

// GetCustomer looks a customer up by id or email. Nothing to look up
// is not an error.
func (a *ClientAdapter) GetCustomer(ctx context.Context, customerID, email string) (string, error) {
	var requestURL string
	switch {
	case customerID != "":
		requestURL = a.versionedURL("/customers/%s", customerID)
	case email != "":
		requestURL = a.versionedURL("/customers?filter=eq(email,%s)", url.QueryEscape(email))
	default:
		return "", nil
	}

	resp, err := a.doRequest(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read customer response: %w", err)
	}

	// Lookup by id returns a single object, lookup by email a list
	if customerID != "" {
		var payload struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return "", fmt.Errorf("failed to parse customer response: %w", err)
		}
		return payload.Data.ID, nil
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("failed to parse customer list response: %w", err)
	}
	if len(payload.Data) == 0 {
		return "", fmt.Errorf("%w: no customer with email %s", domain.ErrNotFound, email)
	}
	return payload.Data[0].ID, nil
}

// createCustomer attempts a plain creation. A duplicate-email conflict
// comes back as domain.ErrDuplicateEmail for the caller to recover.
func (a *ClientAdapter) createCustomer(ctx context.Context, name, email string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"type":  "customer",
			"name":  name,
			"email": email,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal customer: %w", err)
	}

	resp, err := a.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.versionedURL("/customers"), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		authHeader, err := a.getAuthorization(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", authHeader)
		req.Header.Set("Content-Type", "application/json")
		return a.httpClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	defer resp.Body.Close()

	// The platform reports the duplicate-email conflict in the error
	// payload, so the body is inspected before the status is mapped.
	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		Errors []apiError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse customer response: %w", err)
	}

	if len(payload.Errors) > 0 {
		first := payload.Errors[0]
		if first.Title == "Duplicate email" {
			return "", fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, email)
		}
		return "", fmt.Errorf("%w: status %d - %s: %s", domain.ErrUpstreamRejected, resp.StatusCode, first.Title, first.Detail)
	}
	if payload.Data.ID == "" {
		return "", fmt.Errorf("%w: status %d - customer creation returned no id", domain.ErrUpstreamRejected, resp.StatusCode)
	}

	return payload.Data.ID, nil
}

// GetOrCreateCustomer creates a customer, recovering a duplicate-email
// conflict with a lookup by that email
func (a *ClientAdapter) GetOrCreateCustomer(ctx context.Context, name, email string) (string, error) {
	customerID, err := a.createCustomer(ctx, name, email)
	if err == nil {
		return customerID, nil
	}
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		return "", err
	}

	logrus.Infof("Email %s already registered, falling back to lookup", email)

	return a.GetCustomer(ctx, "", email)
}
