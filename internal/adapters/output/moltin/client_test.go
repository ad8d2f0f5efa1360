package moltin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"fishshop/configs"
	"fishshop/internal/domain"
)

// testServer wires a token endpoint and a caller-provided API handler
// into one httptest server and counts token exchanges.
type testServer struct {
	server     *httptest.Server
	tokenCalls int64
	expiresIn  int
}

func newTestServer(t *testing.T, expiresIn int, apiHandler http.HandlerFunc) *testServer {
	t.Helper()

	ts := &testServer{expiresIn: expiresIn}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/access_token" {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse token form: %v", err)
			}
			if r.PostForm.Get("grant_type") != "client_credentials" {
				t.Errorf("unexpected grant_type %q", r.PostForm.Get("grant_type"))
			}
			calls := atomic.AddInt64(&ts.tokenCalls, 1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, calls, ts.expiresIn)
			return
		}
		if apiHandler != nil {
			apiHandler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.server.Close)

	return ts
}

func (ts *testServer) newAdapter(t *testing.T) *ClientAdapter {
	t.Helper()

	adapter, err := NewClientAdapter(configs.Commerce{
		BaseURL:      ts.server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      5,
	})
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	return adapter
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Credential caching tests

func TestValidTokenIsReusedAcrossRequests(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("unexpected authorization header %q", got)
		}
		writeJSON(w, map[string]interface{}{"data": []interface{}{}})
	})
	adapter := ts.newAdapter(t)

	for i := 0; i < 3; i++ {
		if _, err := adapter.GetProducts(context.Background()); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	if got := atomic.LoadInt64(&ts.tokenCalls); got != 1 {
		t.Errorf("expected exactly 1 token exchange, got %d", got)
	}
}

func TestExpiredTokenIsRefreshedOnce(t *testing.T) {
	// With the safety margin larger than expires_in the credential is
	// already stale when cached, so every request must re-exchange.
	ts := newTestServer(t, 5, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"data": []interface{}{}})
	})
	adapter := ts.newAdapter(t)

	for i := 0; i < 2; i++ {
		if _, err := adapter.GetProducts(context.Background()); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	if got := atomic.LoadInt64(&ts.tokenCalls); got != 2 {
		t.Errorf("expected a refresh per request for a stale credential, got %d exchanges", got)
	}
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	ts := newTestServer(t, 3600, nil)
	adapter := ts.newAdapter(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := adapter.getAuthorization(context.Background()); err != nil {
				t.Errorf("getAuthorization: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&ts.tokenCalls); got != 1 {
		t.Errorf("expected exactly 1 token exchange under concurrency, got %d", got)
	}
}

func TestTokenExchangeRejectionIsNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/access_token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":[{"status":401,"title":"Unable to validate access token"}]}`)
			return
		}
		t.Errorf("unexpected API call %s with rejected credentials", r.URL.Path)
	}))
	defer server.Close()

	adapter, err := NewClientAdapter(configs.Commerce{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "wrong-secret",
		Timeout:      5,
	})
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}

	_, err = adapter.GetProducts(context.Background())
	if !errors.Is(err, domain.ErrUpstreamRejected) {
		t.Errorf("expected ErrUpstreamRejected, got %v", err)
	}
}

// Catalog tests

func productFixture(id, name string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"name":        name,
		"description": "Fresh " + name,
		"price":       []map[string]interface{}{{"amount": 1200}},
		"meta": map[string]interface{}{
			"display_price": map[string]interface{}{
				"with_tax": map[string]interface{}{"formatted": "$12.00"},
			},
			"stock": map[string]interface{}{"level": 42},
		},
		"relationships": map[string]interface{}{
			"main_image": map[string]interface{}{
				"data": map[string]interface{}{"id": "img-" + id},
			},
		},
	}
}

func TestGetProductsParsesCatalog(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/products" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{
			"data": []interface{}{
				productFixture("prod-1", "Blue Tuna"),
				productFixture("prod-2", "Atlantic Salmon"),
			},
		})
	})
	adapter := ts.newAdapter(t)

	products, err := adapter.GetProducts(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	first := products[0]
	if first.ID != "prod-1" || first.Name != "Blue Tuna" {
		t.Errorf("unexpected product %+v", first)
	}
	if first.Price != 1200 || first.PriceFormatted != "$12.00" {
		t.Errorf("unexpected price mapping %+v", first)
	}
	if first.Availability != 42 || first.ImageID != "img-prod-1" {
		t.Errorf("unexpected stock or image mapping %+v", first)
	}
}

func TestGetProductNotFound(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors":[{"status":404,"title":"Not Found"}]}`)
	})
	adapter := ts.newAdapter(t)

	_, err := adapter.GetProduct(context.Background(), "prod-404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClientErrorMapsToUpstreamRejected(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":[{"status":403,"title":"Forbidden"}]}`)
	})
	adapter := ts.newAdapter(t)

	_, err := adapter.GetProduct(context.Background(), "prod-1")
	if !errors.Is(err, domain.ErrUpstreamRejected) {
		t.Errorf("expected ErrUpstreamRejected, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("a 403 must not map to ErrNotFound")
	}
}

func TestServerErrorIsRetriedThenSucceeds(t *testing.T) {
	var apiCalls int64
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&apiCalls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]interface{}{"data": []interface{}{}})
	})
	adapter := ts.newAdapter(t)

	if _, err := adapter.GetProducts(context.Background()); err != nil {
		t.Fatalf("expected the retry to recover, got %v", err)
	}
	if got := atomic.LoadInt64(&apiCalls); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestGetImageURLResolvesLink(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/files/img-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"link": map[string]interface{}{"href": "https://files.example.com/img-1.png"},
			},
		})
	})
	adapter := ts.newAdapter(t)

	href, err := adapter.GetImageURL(context.Background(), "img-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if href != "https://files.example.com/img-1.png" {
		t.Errorf("unexpected href %q", href)
	}
}

// Cart tests

func TestAddCartItemUsesSessionScopedReference(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/carts/:chat-1/items" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var payload struct {
			Data struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Quantity int    `json:"quantity"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode cart item body: %v", err)
		}
		if payload.Data.ID != "prod-1" || payload.Data.Type != "cart_item" || payload.Data.Quantity != 5 {
			t.Errorf("unexpected cart item body %+v", payload.Data)
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":[]}`)
	})
	adapter := ts.newAdapter(t)

	if err := adapter.AddCartItem(context.Background(), "chat-1", "prod-1", 5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestGetCartParsesItemsAndTotal(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/carts/:chat-1/items" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{
					"id":          "item-1",
					"product_id":  "prod-1",
					"name":        "Blue Tuna",
					"description": "Fresh blue tuna",
					"quantity":    5,
					"meta": map[string]interface{}{
						"display_price": map[string]interface{}{
							"with_tax": map[string]interface{}{
								"unit":  map[string]interface{}{"formatted": "$12.00"},
								"value": map[string]interface{}{"formatted": "$60.00"},
							},
						},
					},
				},
			},
			"meta": map[string]interface{}{
				"display_price": map[string]interface{}{
					"with_tax": map[string]interface{}{"formatted": "$60.00"},
				},
			},
		})
	})
	adapter := ts.newAdapter(t)

	cart, err := adapter.GetCart(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cart.TotalPrice != "$60.00" {
		t.Errorf("unexpected grand total %q", cart.TotalPrice)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart.Items))
	}
	item := cart.Items[0]
	if item.ID != "item-1" || item.ProductID != "prod-1" || item.Quantity != 5 {
		t.Errorf("unexpected item %+v", item)
	}
	if item.UnitPrice != "$12.00" || item.TotalPrice != "$60.00" {
		t.Errorf("unexpected item prices %+v", item)
	}
}

func TestDeleteCartTargetsSessionReference(t *testing.T) {
	var deleted int64
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/v2/carts/:chat-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		atomic.AddInt64(&deleted, 1)
		w.WriteHeader(http.StatusNoContent)
	})
	adapter := ts.newAdapter(t)

	if err := adapter.DeleteCart(context.Background(), "chat-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if atomic.LoadInt64(&deleted) != 1 {
		t.Error("expected one delete request")
	}
}

// Customer tests

func TestGetCustomerWithNothingToLookUp(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s with empty lookup", r.URL.Path)
	})
	adapter := ts.newAdapter(t)

	customerID, err := adapter.GetCustomer(context.Background(), "", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if customerID != "" {
		t.Errorf("expected empty id, got %q", customerID)
	}
}

func TestGetCustomerByEmailNotFound(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"data": []interface{}{}})
	})
	adapter := ts.newAdapter(t)

	_, err := adapter.GetCustomer(context.Background(), "", "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateCustomerCreatesNew(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/customers" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"customer-new"}}`)
	})
	adapter := ts.newAdapter(t)

	customerID, err := adapter.GetOrCreateCustomer(context.Background(), "Chat customer", "user@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if customerID != "customer-new" {
		t.Errorf("expected customer-new, got %q", customerID)
	}
}

func TestGetOrCreateCustomerRecoversDuplicateEmail(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/customers":
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"errors":[{"status":409,"title":"Duplicate email","detail":"Email already in use"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v2/customers":
			if filter := r.URL.Query().Get("filter"); filter != "eq(email,user@example.com)" {
				t.Errorf("unexpected filter %q", filter)
			}
			writeJSON(w, map[string]interface{}{
				"data": []interface{}{map[string]interface{}{"id": "customer-existing"}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	adapter := ts.newAdapter(t)

	customerID, err := adapter.GetOrCreateCustomer(context.Background(), "Chat customer", "user@example.com")
	if err != nil {
		t.Fatalf("expected the duplicate to be recovered, got %v", err)
	}
	if customerID != "customer-existing" {
		t.Errorf("expected customer-existing, got %q", customerID)
	}
}

func TestCreateCustomerOtherRejectionPropagates(t *testing.T) {
	ts := newTestServer(t, 3600, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"errors":[{"status":422,"title":"Failed Validation","detail":"The data.email field must be a valid email"}]}`)
	})
	adapter := ts.newAdapter(t)

	_, err := adapter.GetOrCreateCustomer(context.Background(), "Chat customer", "user@invalid")
	if !errors.Is(err, domain.ErrUpstreamRejected) {
		t.Errorf("expected ErrUpstreamRejected, got %v", err)
	}
}
