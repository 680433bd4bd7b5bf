package search

import (
	"time"

	"github.com/ca-srg/fluentsearch/internal/logging"
	"github.com/ca-srg/fluentsearch/internal/opensearch"
	"github.com/ca-srg/fluentsearch/internal/types"
)

const defaultHost = "http://127.0.0.1:9200"

var _ Engine = (*opensearch.Client)(nil)

// Config holds connection settings and facade defaults. Tuning fields are
// handed to the engine client without interpretation.
type Config struct {
	Hosts    []string
	Username string
	Password string
	Logging  logging.Options

	Index        string
	IDField      string
	SuggestField string

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
}

// merge overlays the non-zero fields of other onto c. A false
// InsecureSkipTLS counts as unset, so merging can enable the flag but never
// clear it; use Builder.SetInsecureSkipTLS for that.
func (c Config) merge(other Config) Config {
	if len(other.Hosts) > 0 {
		c.Hosts = append([]string(nil), other.Hosts...)
	}
	if other.Username != "" || other.Password != "" {
		c.Username, c.Password = other.Username, other.Password
	}
	if other.Logging != (logging.Options{}) {
		c.Logging = other.Logging
	}
	c.Index = firstNonEmpty(other.Index, c.Index)
	c.IDField = firstNonEmpty(other.IDField, c.IDField)
	c.SuggestField = firstNonEmpty(other.SuggestField, c.SuggestField)
	c.Region = firstNonEmpty(other.Region, c.Region)
	c.InsecureSkipTLS = c.InsecureSkipTLS || other.InsecureSkipTLS
	if other.RateLimit > 0 {
		c.RateLimit = other.RateLimit
	}
	if other.RateBurst > 0 {
		c.RateBurst = other.RateBurst
	}
	if other.ConnectionTimeout > 0 {
		c.ConnectionTimeout = other.ConnectionTimeout
	}
	if other.RequestTimeout > 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.MaxRetries > 0 {
		c.MaxRetries = other.MaxRetries
	}
	if other.MaxConnections > 0 {
		c.MaxConnections = other.MaxConnections
	}
	if other.MaxIdleConns > 0 {
		c.MaxIdleConns = other.MaxIdleConns
	}
	if other.IdleConnTimeout > 0 {
		c.IdleConnTimeout = other.IdleConnTimeout
	}
	return c
}

func (c Config) withDefaults() Config {
	return Config{
		Hosts:        []string{defaultHost},
		Index:        defaultIndex,
		IDField:      defaultIDField,
		SuggestField: defaultSuggestField,
	}.merge(c)
}

// Builder accumulates connection settings for a Client.
type Builder struct {
	cfg        Config
	configured bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

// FromConfig seeds a builder from environment configuration.
func FromConfig(cfg *types.Config) *Builder {
	b := NewBuilder()
	if cfg == nil {
		return b
	}
	return b.SetConfig(Config{
		Hosts:             cfg.OpenSearchHosts,
		Username:          cfg.OpenSearchUsername,
		Password:          cfg.OpenSearchPassword,
		Logging:           logging.OptionsFromConfig(cfg),
		Index:             cfg.OpenSearchIndex,
		IDField:           cfg.OpenSearchIDField,
		SuggestField:      cfg.OpenSearchSuggestField,
		Region:            cfg.OpenSearchRegion,
		InsecureSkipTLS:   cfg.OpenSearchInsecureSkipTLS,
		RateLimit:         cfg.OpenSearchRateLimit,
		RateBurst:         cfg.OpenSearchRateBurst,
		ConnectionTimeout: cfg.OpenSearchConnectionTimeout,
		RequestTimeout:    cfg.OpenSearchRequestTimeout,
		MaxRetries:        cfg.OpenSearchMaxRetries,
		MaxConnections:    cfg.OpenSearchMaxConnections,
		MaxIdleConns:      cfg.OpenSearchMaxIdleConns,
		IdleConnTimeout:   cfg.OpenSearchIdleConnTimeout,
	})
}

// SetConfig overlays every non-zero field of cfg. Zero values leave the
// current setting in place, including a false InsecureSkipTLS.
func (b *Builder) SetConfig(cfg Config) *Builder {
	b.cfg = b.cfg.merge(cfg)
	b.configured = true
	return b
}

// SetHosts replaces the host list.
func (b *Builder) SetHosts(hosts []string) *Builder {
	b.cfg.Hosts = append([]string(nil), hosts...)
	b.configured = true
	return b
}

// SetAuth sets basic auth credentials.
func (b *Builder) SetAuth(username, password string) *Builder {
	b.cfg.Username = username
	b.cfg.Password = password
	b.configured = true
	return b
}

// SetInsecureSkipTLS turns TLS certificate verification off or back on.
func (b *Builder) SetInsecureSkipTLS(skip bool) *Builder {
	b.cfg.InsecureSkipTLS = skip
	b.configured = true
	return b
}

// SetLogging configures the engine client's diagnostic logging.
func (b *Builder) SetLogging(opts logging.Options) *Builder {
	b.cfg.Logging = opts
	b.configured = true
	return b
}

// SetID sets the document field used as the engine document id.
func (b *Builder) SetID(name string) *Builder {
	b.cfg.IDField = name
	b.configured = true
	return b
}

// SetIndex sets the default index.
func (b *Builder) SetIndex(name string) *Builder {
	b.cfg.Index = name
	b.configured = true
	return b
}

// SetSuggestField sets the field queried by Suggest.
func (b *Builder) SetSuggestField(name string) *Builder {
	b.cfg.SuggestField = name
	b.configured = true
	return b
}

// Config returns the settings Build would use.
func (b *Builder) Config() Config {
	return b.cfg.withDefaults()
}

// Build creates the engine client and returns a ready Client. It fails with a
// *ConfigurationError when nothing was ever set on the builder.
func (b *Builder) Build() (*Client, error) {
	if !b.configured {
		return nil, &ConfigurationError{Message: "no configuration was set"}
	}
	cfg := b.Config()

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, &ConfigurationError{Message: "failed to create logger", Err: err}
	}

	engine, err := opensearch.NewClient(&opensearch.Config{
		Addresses:         cfg.Hosts,
		Username:          cfg.Username,
		Password:          cfg.Password,
		Region:            cfg.Region,
		InsecureSkipTLS:   cfg.InsecureSkipTLS,
		RateLimit:         cfg.RateLimit,
		RateBurst:         cfg.RateBurst,
		ConnectionTimeout: cfg.ConnectionTimeout,
		RequestTimeout:    cfg.RequestTimeout,
		MaxRetries:        cfg.MaxRetries,
		MaxConnections:    cfg.MaxConnections,
		MaxIdleConns:      cfg.MaxIdleConns,
		IdleConnTimeout:   cfg.IdleConnTimeout,
		LogRequestBody:    cfg.Logging.RequestBody,
		LogResponseBody:   cfg.Logging.ResponseBody,
	}, logger)
	if err != nil {
		return nil, &ConfigurationError{Message: "failed to create engine client", Err: err}
	}

	return NewClient(engine,
		WithIndex(cfg.Index),
		WithIDField(cfg.IDField),
		WithSuggestField(cfg.SuggestField),
		WithLogger(logger),
	), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
