package worktrail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"worklogsync/worklog"
)

// Client defines the WorkTrail app API operations used by the sync.
type Client interface {
	FetchEmployees(ctx context.Context) ([]worklog.Employee, error)
	FetchWorkEntries(ctx context.Context, modifiedSince int64, page int) (WorkEntryPage, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	AppKey     string
	AuthToken  string
	UserAgent  string
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	appKey     string
	authToken  string
	userAgent  string
	httpClient httpDoer
}

// WorkEntryPage is one page of entries modified since the requested watermark.
// NumPages is the total page count as reported with this page.
type WorkEntryPage struct {
	Entries  []worklog.WorkEntry `json:"list"`
	NumPages int                 `json:"numPages"`
}

type employeeListResponse struct {
	Employees []worklog.Employee `json:"list"`
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
	if strings.TrimSpace(cfg.AppKey) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("app key and auth token are required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPClient{
		baseURL:    baseURL,
		appKey:     strings.TrimSpace(cfg.AppKey),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
	}, nil
}

func (c *HTTPClient) FetchEmployees(ctx context.Context) ([]worklog.Employee, error) {
	var out employeeListResponse
	if err := c.getJSON(ctx, "/rest/employees/", nil, &out); err != nil {
		return nil, err
	}
	return out.Employees, nil
}

func (c *HTTPClient) FetchWorkEntries(ctx context.Context, modifiedSince int64, page int) (WorkEntryPage, error) {
	if page < 1 {
		return WorkEntryPage{}, fmt.Errorf("page must be >= 1, got %d", page)
	}
	query := url.Values{}
	query.Set("modifydate_since", strconv.FormatInt(modifiedSince, 10))
	query.Set("page", strconv.Itoa(page))

	var out WorkEntryPage
	if err := c.getJSON(ctx, "/rest/workentries/", query, &out); err != nil {
		return WorkEntryPage{}, err
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, endpointPath string, query url.Values, out any) error {
	target := c.baseURL + endpointPath
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request GET %s: %w", endpointPath, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-APPKEY", c.appKey)
	req.Header.Set("X-AUTHTOKEN", c.authToken)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request GET %s failed: %w", endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request GET %s failed with status %d: %s",
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response GET %s: %w", endpointPath, err)
	}
	return nil
}
