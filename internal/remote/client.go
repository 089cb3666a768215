package remote

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

	"github.com/veloshop/storefront/internal/entity"
	"github.com/veloshop/storefront/internal/logger"
)

// Client talks JSON to the remote data source. It is the single place that
// knows about response envelopes and identity-field normalization: every
// document that crosses this boundary comes out with a canonical "id" key.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given API base URL, e.g.
// "http://localhost:8080/api". No automatic retry: a failed request is
// surfaced to the caller as-is.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// EndpointFor maps an entity to its URL path segment.
func EndpointFor(name entity.Name) string {
	switch name {
	case entity.ShippingTaxSettings:
		return "shipping-tax-settings"
	case entity.BusinessTracking:
		return "business-tracking"
	default:
		return string(name)
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// List performs a GET and decodes either a bare array of records or a
// paginated envelope ({<items>: [...], pagination: {...}}) transparently.
// A bare object (singleton settings) comes back as a one-element slice.
func (c *Client) List(ctx context.Context, path string, query url.Values) ([]entity.Document, error) {
	u := c.url(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, u, nil, "failed to fetch data")
	if err != nil {
		return nil, err
	}

	docs, err := decodeListBody(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return entity.NormalizeAll(docs), nil
}

// Create POSTs a record and returns the server's response payload.
func (c *Client) Create(ctx context.Context, path string, payload any) (entity.Document, error) {
	return c.write(ctx, http.MethodPost, c.url(path), payload, "failed to add data")
}

// Update PUTs a record. With a non-empty id it uses the identity-in-path
// form; otherwise the payload must carry its own identity field and the PUT
// goes to the bare endpoint.
func (c *Client) Update(ctx context.Context, path, id string, payload any) (entity.Document, error) {
	u := c.url(path)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return c.write(ctx, http.MethodPut, u, payload, "failed to update data")
}

// Delete removes a record by identity, preferring the path form and falling
// back to the query-parameter form when the path form is not routed (404).
func (c *Client) Delete(ctx context.Context, path, id string) (entity.Document, error) {
	doc, err := c.write(ctx, http.MethodDelete, c.url(path)+"/"+url.PathEscape(id), nil, "failed to delete data")
	if err == nil {
		return doc, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	logger.WithComponent("remote").Debugf("delete path form for %s returned 404, retrying query form", path)
	q := url.Values{"id": {id}}
	return c.write(ctx, http.MethodDelete, c.url(path)+"?"+q.Encode(), nil, "failed to delete data")
}

func (c *Client) write(ctx context.Context, method, u string, payload any, fallbackMsg string) (entity.Document, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	respBody, err := c.do(ctx, method, u, body, fallbackMsg)
	if err != nil {
		return nil, err
	}

	var doc entity.Document
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &doc); err != nil {
			// Some endpoints answer writes with a bare array; callers only
			// need the payload for callbacks, so wrap it.
			var arr []entity.Document
			if arrErr := json.Unmarshal(respBody, &arr); arrErr != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			doc = entity.Document{"items": arr}
		}
	}
	return entity.Normalize(doc), nil
}

// do runs one request and maps non-2xx responses onto *Error with the
// server-provided message when present.
func (c *Client) do(ctx context.Context, method, u string, body io.Reader, fallbackMsg string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fallbackMsg, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Status:  resp.StatusCode,
			Message: serverMessage(raw, fallbackMsg),
		}
	}
	return raw, nil
}

// serverMessage extracts a human-readable message from an error body,
// preferring "error" then "message", matching the remote API's shape.
func serverMessage(raw []byte, fallback string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fallback
}

// decodeListBody handles the three read shapes: bare array, paginated
// envelope, and bare singleton object.
func decodeListBody(raw []byte) ([]entity.Document, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var docs []entity.Document
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, err
	}

	if _, paginated := obj["pagination"]; paginated {
		// The items key varies per collection; take the one array value
		// that is not the pagination block.
		for key, val := range obj {
			if key == "pagination" {
				continue
			}
			v := bytes.TrimLeft(val, " \t\r\n")
			if len(v) > 0 && v[0] == '[' {
				var docs []entity.Document
				if err := json.Unmarshal(val, &docs); err != nil {
					return nil, err
				}
				return docs, nil
			}
		}
		return nil, fmt.Errorf("paginated envelope without an items array")
	}

	// Singleton settings object.
	var doc entity.Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return []entity.Document{doc}, nil
}
