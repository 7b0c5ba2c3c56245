package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func guildPath(guildID, rest string) string {
	return "/v1/guilds/" + url.PathEscape(guildID) + rest
}

func (c *Client) Daily(ctx context.Context, guildID, userID, displayName string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, guildPath(guildID, "/daily"), map[string]any{
		"user_id":      userID,
		"display_name": displayName,
	}, &out)
	return out, err
}

func (c *Client) Balance(ctx context.Context, guildID, userID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, guildPath(guildID, "/accounts/"+url.PathEscape(userID)), nil, &out)
	return out, err
}

func (c *Client) Grant(ctx context.Context, guildID, userID string, amount int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, guildPath(guildID, "/accounts/"+url.PathEscape(userID)+"/grant"), map[string]any{
		"amount": amount,
	}, &out)
	return out, err
}

func (c *Client) Inventory(ctx context.Context, guildID, userID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, guildPath(guildID, "/accounts/"+url.PathEscape(userID)+"/items"), nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, guildID string, limit int) (map[string]any, error) {
	path := guildPath(guildID, "/leaderboard")
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Craft(ctx context.Context, guildID, userID, name string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, guildPath(guildID, "/items/craft"), map[string]any{
		"user_id": userID,
		"name":    name,
	}, &out)
	return out, err
}

func (c *Client) ItemDetail(ctx context.Context, guildID, itemID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, guildPath(guildID, "/items/"+url.PathEscape(itemID)), nil, &out)
	return out, err
}

func (c *Client) Enhance(ctx context.Context, guildID, userID, itemID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, guildPath(guildID, "/items/"+url.PathEscape(itemID)+"/enhance"), map[string]any{
		"user_id": userID,
	}, &out)
	return out, err
}

func (c *Client) Browse(ctx context.Context, guildID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, guildPath(guildID, "/market/listings"), nil, &out)
	return out, err
}

func (c *Client) Sell(ctx context.Context, guildID, sellerID, itemID string, price int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, guildPath(guildID, "/market/listings"), map[string]any{
		"seller_id": sellerID,
		"item_id":   itemID,
		"price":     price,
	}, &out)
	return out, err
}

func (c *Client) Buy(ctx context.Context, guildID, buyerID, listingID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, guildPath(guildID, "/market/listings/"+url.PathEscape(listingID)+"/purchase"), map[string]any{
		"buyer_id": buyerID,
	}, &out)
	return out, err
}

func (c *Client) CancelListing(ctx context.Context, guildID, sellerID, listingID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodDelete, guildPath(guildID, "/market/listings/"+url.PathEscape(listingID)), map[string]any{
		"seller_id": sellerID,
	}, &out)
	return out, err
}

func (c *Client) Asset(ctx context.Context, guildID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, guildPath(guildID, "/asset"), nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
