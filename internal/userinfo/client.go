// Package userinfo fetches the profile of the signed-in account and drives
// the profile screen.
package userinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
	"github.com/fruitsalade/fruitsalade/mobile/internal/metrics"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

const userInfoPath = "/ocs/v2.php/cloud/user?format=json"

// ErrTokenExpired is returned when the bearer token is a JWT whose expiry
// has passed. The request is not sent in that case.
var ErrTokenExpired = errors.New("auth token expired")

// Fetcher loads the profile of the current account.
type Fetcher interface {
	FetchUserInfo(ctx context.Context) (*models.UserInfo, error)
}

// Client talks to the OCS user endpoint of a server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	username  string
	password  string
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Username string
	Password string // app password, used with Username for basic auth
	Token    string // bearer token, takes precedence over basic auth
}

// NewClient creates a new client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		username:  cfg.Username,
		password:  cfg.Password,
		authToken: cfg.Token,
	}
}

// SetAuthToken sets the bearer token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// applyAuth adds the Authorization header. A JWT bearer token is checked for
// expiry first.
func (c *Client) applyAuth(req *http.Request) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.authToken != "" {
		if tokenExpired(c.authToken, time.Now()) {
			return ErrTokenExpired
		}
		req.Header.Set("Authorization", "Bearer "+c.authToken)
		return nil
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return nil
}

// tokenExpired reports whether token is a JWT with an exp claim before now.
// Opaque tokens are never considered expired; the server decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}

type ocsMeta struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statuscode"`
	Message    string `json:"message"`
}

type ocsUserResponse struct {
	OCS struct {
		Meta ocsMeta         `json:"meta"`
		Data models.UserInfo `json:"data"`
	} `json:"ocs"`
}

// FetchUserInfo loads the profile of the authenticated account. It makes a
// single attempt.
func (c *Client) FetchUserInfo(ctx context.Context) (*models.UserInfo, error) {
	start := time.Now()
	info, err := c.fetchUserInfo(ctx)
	metrics.RecordProfileFetch(time.Since(start), err == nil)
	return info, err
}

func (c *Client) fetchUserInfo(ctx context.Context) (*models.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userInfoPath, nil)
	if err != nil {
		return nil, err
	}
	if err := c.applyAuth(req); err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := logging.WithContext(ctx).With(logging.String("request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn("user info request rejected", logging.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("user info failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result ocsUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse user info response: %w", err)
	}
	if meta := result.OCS.Meta; meta.Status != "ok" && meta.Status != "" {
		return nil, fmt.Errorf("user info failed (ocs %d): %s", meta.StatusCode, meta.Message)
	}

	log.Debug("user info fetched", logging.String("user", result.OCS.Data.ID))
	return &result.OCS.Data, nil
}
