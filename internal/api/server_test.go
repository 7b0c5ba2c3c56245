package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"alleycat/internal/config"
	"alleycat/internal/economy"
	"alleycat/internal/store"
)

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	svc := economy.NewService(fs, economy.DefaultTuning(), nil)
	svc.Seed(1)
	cfg := config.APIConfig{APIToken: token, LeaderboardTop: 10}
	ts := httptest.NewServer(New(cfg, nil, svc).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, "")
	status, out := doJSON(t, ts, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	if out["ok"] != true {
		t.Fatalf("body=%v", out)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	ts := newTestServer(t, "sekrit")

	status, _ := doJSON(t, ts, http.MethodGet, "/v1/guilds/g1/accounts/u1", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("no token: status=%d want=401", status)
	}
	status, _ = doJSON(t, ts, http.MethodGet, "/v1/guilds/g1/accounts/u1", "wrong", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong token: status=%d want=401", status)
	}
	status, _ = doJSON(t, ts, http.MethodGet, "/v1/guilds/g1/accounts/u1", "sekrit", nil)
	if status != http.StatusOK {
		t.Fatalf("good token: status=%d want=200", status)
	}
	// Health stays open for probes.
	status, _ = doJSON(t, ts, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("healthz behind auth: status=%d", status)
	}
}

func TestGrantCraftListPurchaseFlow(t *testing.T) {
	ts := newTestServer(t, "")

	status, out := doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/accounts/seller/grant", "", map[string]any{"amount": 10000})
	if status != http.StatusOK {
		t.Fatalf("grant: status=%d body=%v", status, out)
	}

	status, out = doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/items/craft", "", map[string]any{
		"user_id": "seller", "name": "Alley Blade",
	})
	if status != http.StatusCreated {
		t.Fatalf("craft: status=%d body=%v", status, out)
	}
	item := out["item"].(map[string]any)
	itemID := item["id"].(string)
	if item["grade_name"] != "scrap" {
		t.Fatalf("craft grade=%v", item["grade_name"])
	}

	status, out = doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/market/listings", "", map[string]any{
		"seller_id": "seller", "item_id": itemID, "price": 1000,
	})
	if status != http.StatusCreated {
		t.Fatalf("list: status=%d body=%v", status, out)
	}
	listing := out["listing"].(map[string]any)
	listingID := listing["id"].(string)

	status, out = doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/accounts/buyer/grant", "", map[string]any{"amount": 1500})
	if status != http.StatusOK {
		t.Fatalf("grant buyer: status=%d body=%v", status, out)
	}
	status, out = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/v1/guilds/g1/market/listings/%s/purchase", listingID), "", map[string]any{
		"buyer_id": "buyer",
	})
	if status != http.StatusOK {
		t.Fatalf("purchase: status=%d body=%v", status, out)
	}
	if out["seller_payout"].(float64) != 1000 {
		t.Fatalf("payout=%v", out["seller_payout"])
	}

	// The item moved into the buyer's inventory.
	status, out = doJSON(t, ts, http.MethodGet, "/v1/guilds/g1/accounts/buyer/items", "", nil)
	if status != http.StatusOK {
		t.Fatalf("inventory: status=%d", status)
	}
	items := out["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("buyer items=%v", items)
	}

	// Asset report is consistent after the flow.
	status, out = doJSON(t, ts, http.MethodGet, "/v1/guilds/g1/asset", "", nil)
	if status != http.StatusOK {
		t.Fatalf("asset: status=%d", status)
	}
	if out["guild_id"] != "g1" {
		t.Fatalf("asset body=%v", out)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	ts := newTestServer(t, "")

	// No funds to craft with.
	status, _ := doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/items/craft", "", map[string]any{
		"user_id": "broke", "name": "Wish",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("insufficient funds: status=%d want=422", status)
	}

	// Unknown listing.
	status, _ = doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/market/listings/nope/purchase", "", map[string]any{
		"buyer_id": "buyer",
	})
	if status != http.StatusNotFound {
		t.Fatalf("unknown listing: status=%d want=404", status)
	}

	// Bad request body.
	status, _ = doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/items/craft", "", map[string]any{
		"user_id": "u1", "name": "x", "bogus": true,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown field: status=%d want=400", status)
	}

	// Double daily claim conflicts.
	status, _ = doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/daily", "", map[string]any{"user_id": "u1"})
	if status != http.StatusOK {
		t.Fatalf("first daily: status=%d", status)
	}
	status, _ = doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/daily", "", map[string]any{"user_id": "u1"})
	if status != http.StatusConflict {
		t.Fatalf("second daily: status=%d want=409", status)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := newTestServer(t, "")

	for i, user := range []string{"a", "b", "c"} {
		amount := int64((i + 1) * 100)
		status, out := doJSON(t, ts, http.MethodPost, "/v1/guilds/g1/accounts/"+user+"/grant", "", map[string]any{"amount": amount})
		if status != http.StatusOK {
			t.Fatalf("grant %s: status=%d body=%v", user, status, out)
		}
	}

	status, out := doJSON(t, ts, http.MethodGet, "/v1/guilds/g1/leaderboard?limit=2", "", nil)
	if status != http.StatusOK {
		t.Fatalf("leaderboard: status=%d", status)
	}
	rows := out["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("rows=%v", rows)
	}
	top := rows[0].(map[string]any)
	if top["user_id"] != "c" {
		t.Fatalf("top row=%v", top)
	}
}
