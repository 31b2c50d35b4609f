// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package kaggle is a minimal Kaggle datasets client: it downloads a
// dataset bundle, caches it locally, and hands back the extracted path.
package kaggle

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultEndpoint is the Kaggle API base URL. Overridable via
// Settings.Endpoint for tests or proxies.
const DefaultEndpoint = "https://www.kaggle.com"

// Common errors returned by the client.
var (
	// ErrMissingCredentials is returned when no API credentials can be
	// found in the environment or in ~/.kaggle/kaggle.json.
	ErrMissingCredentials = errors.New("kaggle credentials not found: set KAGGLE_USERNAME and KAGGLE_KEY or create ~/.kaggle/kaggle.json")

	// ErrInvalidRef is returned when a dataset reference is not in
	// "owner/slug" format.
	ErrInvalidRef = errors.New("invalid dataset ref: expected owner/slug format")

	// ErrUnauthorized is returned when the API rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized: check your Kaggle API credentials")

	// ErrNotFound is returned when the dataset does not exist or is
	// not accessible.
	ErrNotFound = errors.New("dataset not found")
)

// APIError represents an unexpected response from the Kaggle API.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kaggle API error %d: %s", e.StatusCode, e.Status)
}

// Is implements errors.Is for common error comparisons.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 401, 403:
		return errors.Is(target, ErrUnauthorized)
	case 404:
		return errors.Is(target, ErrNotFound)
	default:
		return false
	}
}

// IsRetryable reports whether the request might succeed on retry.
func (e *APIError) IsRetryable() bool {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Credentials holds a Kaggle API username/key pair.
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// LoadCredentials reads API credentials from the KAGGLE_USERNAME and
// KAGGLE_KEY environment variables, falling back to the standard
// ~/.kaggle/kaggle.json file. Returns ErrMissingCredentials when
// neither source yields a complete pair.
func LoadCredentials() (Credentials, error) {
	c := Credentials{
		Username: strings.TrimSpace(os.Getenv("KAGGLE_USERNAME")),
		Key:      strings.TrimSpace(os.Getenv("KAGGLE_KEY")),
	}
	if c.Username != "" && c.Key != "" {
		return c, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Credentials{}, ErrMissingCredentials
	}
	b, err := os.ReadFile(filepath.Join(home, ".kaggle", "kaggle.json"))
	if err != nil {
		return Credentials{}, ErrMissingCredentials
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return Credentials{}, fmt.Errorf("invalid kaggle.json: %w", err)
	}
	if c.Username == "" || c.Key == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return c, nil
}

// ProgressFunc reports bytes downloaded so far against the expected
// total. Total is -1 when the server did not announce a length.
type ProgressFunc func(downloaded, total int64)

// Settings configures the client.
type Settings struct {
	// Endpoint is the API base URL. Empty means DefaultEndpoint.
	Endpoint string

	// CacheDir is where dataset bundles are stored and extracted.
	// Empty means ~/.cache/datasetprep.
	CacheDir string

	// Credentials authenticate dataset downloads.
	Credentials Credentials

	// Retries is the maximum retry attempts per request. If <= 0,
	// defaults to 4.
	Retries int

	// BackoffInitial is the delay before the first retry ("400ms").
	BackoffInitial string

	// BackoffMax caps the exponential retry delay ("10s").
	BackoffMax string

	// Progress, when set, receives download progress updates.
	Progress ProgressFunc
}

// Client downloads and caches Kaggle datasets.
type Client struct {
	cfg   Settings
	httpc *http.Client
}

// NewClient creates a client with defaults applied.
func NewClient(cfg Settings) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	if cfg.Retries <= 0 {
		cfg.Retries = 4
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}
	return &Client{cfg: cfg, httpc: buildHTTPClient()}
}

// IsValidRef checks that a dataset reference is in "owner/slug" format.
func IsValidRef(ref string) bool {
	parts := strings.Split(ref, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

func defaultCacheDir() string {
	if dir := os.Getenv("DATASETPREP_CACHE"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "datasetprep")
}

func buildHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr}
}

func (c *Client) downloadURL(ref string) string {
	return fmt.Sprintf("%s/api/v1/datasets/download/%s", c.cfg.Endpoint, ref)
}

func (c *Client) addAuth(req *http.Request) {
	if c.cfg.Credentials.Username != "" {
		req.SetBasicAuth(c.cfg.Credentials.Username, c.cfg.Credentials.Key)
	}
	req.Header.Set("User-Agent", "datasetprep/1")
}
