package postman

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultBaseURL is the public Postman API.
	DefaultBaseURL = "https://api.getpostman.com"

	// DefaultTimeout applies to every request when no timeout is configured.
	DefaultTimeout = 15000 * time.Millisecond
)

// Config contains configuration for the Postman API client.
type Config struct {
	// BaseURL is the API root, without trailing slash.
	// Default: DefaultBaseURL
	BaseURL string

	// APIKey is sent as X-Api-Key on every request.
	APIKey string

	// Timeout bounds each request individually; there is no run-level
	// deadline.
	// Default: DefaultTimeout
	Timeout time.Duration

	// Logger (optional)
	Logger hclog.Logger

	// HTTPClient overrides the client built from Timeout (optional).
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with defaults applied and no API key.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(httpURL)),
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Millisecond)),
	)
}

// NewHTTPClient creates a configured HTTP client for this config.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https scheme")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
