package jira

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
	"time"

	"worklogsync/internal/timeutil"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 20 * time.Second
)

// Client creates worklogs on Jira issues.
type Client interface {
	CreateWorklog(ctx context.Context, issueKey, comment string, durationSeconds int64, startedAt time.Time) (WorklogResult, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL        string
	Username       string
	Password       string
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	HTTPClient     httpDoer
}

type HTTPClient struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient httpDoer
}

type WorklogResult struct {
	ID   string `json:"id"`
	Self string `json:"self"`
}

type createWorklogRequest struct {
	Comment          string `json:"comment"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	Started          string `json:"started"`
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = newTimeoutHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)
	}

	return &HTTPClient{
		baseURL:    baseURL,
		username:   cfg.Username,
		password:   cfg.Password,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
	}, nil
}

// newTimeoutHTTPClient bounds the dial and the wait for response headers separately,
// and the whole exchange by their sum.
func newTimeoutHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = readTimeout

	return &http.Client{
		Transport: transport,
		Timeout:   connectTimeout + readTimeout,
	}
}

func (c *HTTPClient) CreateWorklog(ctx context.Context, issueKey, comment string, durationSeconds int64, startedAt time.Time) (WorklogResult, error) {
	issueKey = strings.TrimSpace(issueKey)
	if issueKey == "" {
		return WorklogResult{}, errors.New("issue key is required")
	}
	if durationSeconds < 0 {
		return WorklogResult{}, fmt.Errorf("negative duration %d for issue %s", durationSeconds, issueKey)
	}

	path := "/rest/api/2/issue/" + url.PathEscape(issueKey) + "/worklog"
	body := createWorklogRequest{
		Comment:          comment,
		TimeSpentSeconds: durationSeconds,
		Started:          timeutil.FormatJira(startedAt),
	}

	var out WorklogResult
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return WorklogResult{}, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return WorklogResult{}, fmt.Errorf("malformed worklog response for issue %s: missing id", issueKey)
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request %s %s failed with status %d: %s",
			method,
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}
