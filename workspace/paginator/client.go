// Package paginator talks to a running console server over HTTP. Client is
// the pagination source of the workspace list and also answers the access,
// feature flag and analytics contracts of the screen.
package paginator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AzielCF/az-console/analytics"
	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
}

// AccessResponse is the body of GET /api/me/access.
type AccessResponse struct {
	Caller      string             `json:"caller"`
	Permissions access.Permissions `json:"permissions"`
	Roles       []string           `json:"roles"`
}

// FeatureResponse is the body of GET /api/features/:flag/:part.
type FeatureResponse struct {
	Flag    string `json:"flag"`
	Part    string `json:"part"`
	Enabled bool   `json:"enabled"`
}

// TrackRequest is the body of POST /api/analytics/track.
type TrackRequest struct {
	Name      string `json:"name,omitempty"`
	Context   string `json:"context"`
	SortValue string `json:"sortValue"`
}

type Client struct {
	cfg  Config
	http *fasthttp.Client
	auth string

	mu     sync.RWMutex
	pages  map[string]workspace.ListPage
	access *AccessResponse
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:         "az-console-cli",
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		pages: make(map[string]workspace.ListPage),
	}
	if cfg.Username != "" {
		c.auth = "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.Username+":"+cfg.Password))
	}
	return c
}

// Fetch resolves one page of the workspace collection. Pages are cached per
// query until Invalidate is called.
func (c *Client) Fetch(ctx context.Context, query workspace.ListQuery) (workspace.ListPage, error) {
	query = query.WithDefaults()
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("page_size", strconv.Itoa(query.PageSize))
	params.Set("sort", query.Sort)
	path := workspace.ResourceURL + "?" + params.Encode()

	c.mu.RLock()
	cached, ok := c.pages[path]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var page workspace.ListPage
	if err := c.do(ctx, fasthttp.MethodGet, path, nil, &page); err != nil {
		return workspace.ListPage{}, err
	}

	c.mu.Lock()
	c.pages[path] = page
	c.mu.Unlock()
	return page, nil
}

// Invalidate drops cached pages. Every cached page depends on the whole
// workspace key set, so any key empties the page cache.
func (c *Client) Invalidate(keys ...string) {
	hit := false
	for _, k := range keys {
		for _, known := range workspace.CacheKeys {
			if k == known {
				hit = true
			}
		}
	}
	if !hit {
		return
	}
	c.mu.Lock()
	c.pages = make(map[string]workspace.ListPage)
	c.access = nil
	c.mu.Unlock()
}

func (c *Client) loadAccess(ctx context.Context) (*AccessResponse, error) {
	c.mu.RLock()
	cached := c.access
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var resp AccessResponse
	if err := c.do(ctx, fasthttp.MethodGet, "/api/me/access", nil, &resp); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.access = &resp
	c.mu.Unlock()
	return &resp, nil
}

// Permissions ignores caller: the server answers for the authenticated user.
func (c *Client) Permissions(ctx context.Context, _ string) (access.Permissions, error) {
	resp, err := c.loadAccess(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Permissions, nil
}

func (c *Client) Roles(ctx context.Context, _ string) ([]string, error) {
	resp, err := c.loadAccess(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Roles, nil
}

// IsFeaturePartEnabled treats any failure as disabled.
func (c *Client) IsFeaturePartEnabled(ctx context.Context, flag, part string) bool {
	var resp FeatureResponse
	path := "/api/features/" + url.PathEscape(flag) + "/" + url.PathEscape(part)
	if err := c.do(ctx, fasthttp.MethodGet, path, nil, &resp); err != nil {
		logrus.WithError(err).Debugf("[PAGINATOR] Feature %s.%s unavailable", flag, part)
		return false
	}
	return resp.Enabled
}

// Track posts the event and forgets about it.
func (c *Client) Track(ctx context.Context, ev analytics.Event) {
	body, err := json.Marshal(TrackRequest{Name: ev.Name, Context: ev.Context, SortValue: ev.SortValue})
	if err != nil {
		return
	}
	if err := c.do(ctx, fasthttp.MethodPost, "/api/analytics/track", body, nil); err != nil {
		logrus.WithError(err).Debug("[PAGINATOR] Failed to track event")
	}
}

// do sends one request and decodes the results of the response envelope into
// out. Non-2xx answers become a *workspace.FetchError.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.auth != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, c.auth)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return &workspace.FetchError{Kind: workspace.FetchErrorOther, Message: fmt.Sprintf("Request failed: %v", err)}
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusForbidden {
		return &workspace.FetchError{Kind: workspace.FetchErrorForbidden, Status: status, Message: "Request failed: 403 Forbidden"}
	}
	if status < 200 || status >= 300 {
		return &workspace.FetchError{Kind: workspace.FetchErrorOther, Status: status, Message: fmt.Sprintf("Request failed: %d", status)}
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &workspace.FetchError{Kind: workspace.FetchErrorOther, Status: status, Message: fmt.Sprintf("Request failed: invalid response: %v", err)}
	}
	if len(env.Results) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Results, out); err != nil {
		return &workspace.FetchError{Kind: workspace.FetchErrorOther, Status: status, Message: fmt.Sprintf("Request failed: invalid results: %v", err)}
	}
	return nil
}
