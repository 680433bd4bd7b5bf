package opensearch

import (
	"fmt"
	"time"
)

// Config is passed through to the underlying opensearch-go client.
type Config struct {
	Addresses         []string
	Username          string
	Password          string
	Region            string
	InsecureSkipTLS   bool
	RateLimit         float64
	RateBurst         int
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
	MaxRetries        int
	MaxConnections    int
	MaxIdleConns      int
	IdleConnTimeout   time.Duration

	LogRequestBody  bool
	LogResponseBody bool
}

// Validate rejects a config without addresses and clamps tuning values into
// safe ranges.
func (c *Config) Validate() error {
	if len(c.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}

	if c.RateLimit <= 0 {
		c.RateLimit = 10.0
	}
	if c.RateLimit > 1000 {
		c.RateLimit = 1000.0
	}

	if c.RateBurst <= 0 {
		c.RateBurst = 20
	}
	if c.RateBurst > 10000 {
		c.RateBurst = 10000
	}

	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = 30 * time.Second
	}
	if c.ConnectionTimeout > 300*time.Second {
		c.ConnectionTimeout = 300 * time.Second
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.RequestTimeout > 600*time.Second {
		c.RequestTimeout = 600 * time.Second
	}

	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 100
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 10
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = 90 * time.Second
	}

	return nil
}
