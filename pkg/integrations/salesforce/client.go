package salesforce

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/integrations"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// DefaultAPIVersion is used when no version is configured.
const DefaultAPIVersion = "v60.0"

// TokenRefresher returns a fresh access token after a 401.
type TokenRefresher func(ctx context.Context) (string, error)

// Identity is the authenticated user as reported by the userinfo endpoint.
type Identity struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Username       string `json:"preferred_username"`
	Name           string `json:"name"`
	Email          string `json:"email"`
}

// Options configures a Client.
type Options struct {
	InstanceURL string
	AccessToken string
	Cache       cache.Cache
	CacheTTL    time.Duration
	Refresh     TokenRefresher

	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
}

// Client talks to one org. All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
	refresh TokenRefresher

	refreshMu sync.Mutex
}

// NewClient creates a client for the org at opts.InstanceURL.
func NewClient(opts Options) *Client {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.TTLHTTP
	}
	base := strings.TrimRight(opts.InstanceURL, "/")
	c := &Client{
		Client: integrations.NewClient(opts.Cache, CacheNamespace(base), ttl, map[string]string{
			"Accept": "application/json",
		}),
		baseURL: base,
		refresh: opts.Refresh,
	}
	if opts.AccessToken != "" {
		c.SetHeader("Authorization", "Bearer "+opts.AccessToken)
	}
	if opts.RateLimit > 0 {
		c.SetRateLimit(opts.RateLimit, opts.Burst)
	}
	return c
}

// APIVersions lists the API versions the org supports, oldest first.
func (c *Client) APIVersions(ctx context.Context, refresh bool) ([]schema.APIVersion, error) {
	var versions []schema.APIVersion
	err := c.Cached(ctx, "versions", refresh, &versions, func() error {
		return c.get(ctx, "/services/data/", &versions)
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// LatestVersion returns the newest supported version, or DefaultAPIVersion
// when the org reports none.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	versions, err := c.APIVersions(ctx, false)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return DefaultAPIVersion, nil
	}
	return "v" + versions[len(versions)-1].Version, nil
}

type sobjectList struct {
	Encoding     string                 `json:"encoding"`
	MaxBatchSize int                    `json:"maxBatchSize"`
	SObjects     []schema.EntitySummary `json:"sobjects"`
}

// ListSObjects lists every entity visible to the user in version.
func (c *Client) ListSObjects(ctx context.Context, version string, refresh bool) ([]schema.EntitySummary, error) {
	version = normalizeVersion(version)
	var list sobjectList
	err := c.Cached(ctx, "sobjects:"+version, refresh, &list, func() error {
		return c.get(ctx, "/services/data/"+version+"/sobjects/", &list)
	})
	if err != nil {
		return nil, err
	}
	return list.SObjects, nil
}

// Describe fetches the describe of one entity.
func (c *Client) Describe(ctx context.Context, version, name string) (*schema.EntityDescribe, error) {
	version = normalizeVersion(version)
	path := fmt.Sprintf("/services/data/%s/sobjects/%s/describe", version, url.PathEscape(name))

	var desc schema.EntityDescribe
	err := cache.RetryWithBackoff(ctx, func() error {
		return c.get(ctx, path, &desc)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: describe %s", err, name)
	}
	return &desc, nil
}

// Identity returns the user the access token belongs to.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := c.get(ctx, "/services/oauth2/userinfo", &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// get performs a GET against the org, refreshing the token once on 401.
func (c *Client) get(ctx context.Context, path string, v any) error {
	err := c.Get(ctx, c.baseURL+path, v)
	if !errors.Is(err, integrations.ErrUnauthorized) || c.refresh == nil {
		return err
	}
	if rerr := c.refreshToken(ctx); rerr != nil {
		return fmt.Errorf("%w: token refresh failed: %v", integrations.ErrUnauthorized, rerr)
	}
	return c.Get(ctx, c.baseURL+path, v)
}

func (c *Client) refreshToken(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	token, err := c.refresh(ctx)
	if err != nil {
		return err
	}
	c.SetHeader("Authorization", "Bearer "+token)
	return nil
}

func normalizeVersion(v string) string {
	if v == "" {
		return DefaultAPIVersion
	}
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// BaseURL returns the instance URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// CacheNamespace returns the HTTP cache namespace of the org at instanceURL.
func CacheNamespace(instanceURL string) string {
	return "salesforce:" + hostOf(strings.TrimRight(instanceURL, "/"))
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
