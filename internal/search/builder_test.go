package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/fluentsearch/internal/logging"
	"github.com/ca-srg/fluentsearch/internal/types"
)

func TestBuildWithoutConfiguration(t *testing.T) {
	_, err := NewBuilder().Build()
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
}

func TestBuildAppliesDefaults(t *testing.T) {
	client, err := NewBuilder().SetAuth("elastic", "changeme").Build()
	require.NoError(t, err)

	q := client.Query()
	assert.Equal(t, "goods", q.IndexName())
	assert.Equal(t, "id", q.IDField())
	assert.Equal(t, 15, q.LimitValue())
	assert.Equal(t, "goods_name", client.suggestField)
}

func TestBuilderSettersWin(t *testing.T) {
	b := NewBuilder().
		SetHosts([]string{"http://search-1:9200", "http://search-2:9200"}).
		SetAuth("user", "pass").
		SetLogging(logging.Options{Enabled: false, RequestBody: true}).
		SetIndex("products").
		SetID("sku").
		SetSuggestField("title")

	cfg := b.Config()
	assert.Equal(t, []string{"http://search-1:9200", "http://search-2:9200"}, cfg.Hosts)
	assert.Equal(t, "user", cfg.Username)
	assert.Equal(t, "products", cfg.Index)
	assert.Equal(t, "sku", cfg.IDField)
	assert.Equal(t, "title", cfg.SuggestField)
	assert.True(t, cfg.Logging.RequestBody)

	client, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "products", client.Query().IndexName())
	assert.Equal(t, "sku", client.Query().IDField())
	assert.Equal(t, "orders", client.Index("orders").IndexName())
}

func TestBuilderSetConfigMerges(t *testing.T) {
	b := NewBuilder().
		SetIndex("products").
		SetConfig(Config{RateLimit: 50, RequestTimeout: time.Second})

	cfg := b.Config()
	assert.Equal(t, "products", cfg.Index, "zero fields keep earlier values")
	assert.Equal(t, 50.0, cfg.RateLimit)
	assert.Equal(t, time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{defaultHost}, cfg.Hosts)
}

func TestBuilderInsecureSkipTLS(t *testing.T) {
	b := NewBuilder().SetConfig(Config{InsecureSkipTLS: true})
	assert.True(t, b.Config().InsecureSkipTLS)

	// A later SetConfig with the zero value does not clear it.
	b.SetConfig(Config{Index: "orders"})
	assert.True(t, b.Config().InsecureSkipTLS)
	assert.Equal(t, "orders", b.Config().Index)

	b.SetInsecureSkipTLS(false)
	assert.False(t, b.Config().InsecureSkipTLS)
	assert.Equal(t, "orders", b.Config().Index)
}

func TestFromConfig(t *testing.T) {
	b := FromConfig(&types.Config{
		OpenSearchHosts:        []string{"https://search.example.com"},
		OpenSearchIndex:        "catalog",
		OpenSearchIDField:      "sku",
		OpenSearchSuggestField: "title",
		OpenSearchRateLimit:    5,
		LogEnabled:             true,
		LogLevel:               "debug",
	})

	cfg := b.Config()
	assert.Equal(t, []string{"https://search.example.com"}, cfg.Hosts)
	assert.Equal(t, "catalog", cfg.Index)
	assert.Equal(t, "sku", cfg.IDField)
	assert.Equal(t, "title", cfg.SuggestField)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.True(t, cfg.Logging.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err := FromConfig(nil).Build()
	assert.True(t, IsConfiguration(err))
}
