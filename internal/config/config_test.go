package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults when env not provided", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		require.Equal(t, []string{"http://127.0.0.1:9200"}, cfg.OpenSearchHosts)
		require.Equal(t, "goods", cfg.OpenSearchIndex)
		require.Equal(t, "id", cfg.OpenSearchIDField)
		require.Equal(t, "goods_name", cfg.OpenSearchSuggestField)
		require.Equal(t, 30*time.Second, cfg.OpenSearchConnectionTimeout)
		require.False(t, cfg.LogEnabled)
	})

	t.Run("parses host list and credentials", func(t *testing.T) {
		t.Setenv("OPENSEARCH_HOSTS", "https://a.example.com:9200 , http://b.example.com:9200,,")
		t.Setenv("OPENSEARCH_USERNAME", "elastic")
		t.Setenv("OPENSEARCH_PASSWORD", "changeme")
		t.Setenv("OPENSEARCH_INDEX", "products")
		t.Setenv("OPENSEARCH_ID_FIELD", "sku")

		cfg, err := Load()
		require.NoError(t, err)

		require.Equal(t, []string{"https://a.example.com:9200", "http://b.example.com:9200"}, cfg.OpenSearchHosts)
		require.Equal(t, "elastic", cfg.OpenSearchUsername)
		require.Equal(t, "changeme", cfg.OpenSearchPassword)
		require.Equal(t, "products", cfg.OpenSearchIndex)
		require.Equal(t, "sku", cfg.OpenSearchIDField)
	})

	t.Run("rejects hosts without scheme", func(t *testing.T) {
		t.Setenv("OPENSEARCH_HOSTS", "localhost:9200")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "scheme")
	})

	t.Run("rejects password without username", func(t *testing.T) {
		t.Setenv("OPENSEARCH_PASSWORD", "secret")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("rejects idle conns above max connections", func(t *testing.T) {
		t.Setenv("OPENSEARCH_MAX_CONNECTIONS", "5")
		t.Setenv("OPENSEARCH_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("rejects invalid index names", func(t *testing.T) {
		t.Setenv("OPENSEARCH_INDEX", "Goods")

		_, err := Load()
		require.Error(t, err)
	})
}

func TestIsValidIndexName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "simple", input: "goods", want: true},
		{name: "with dash and digits", input: "goods-2024.01", want: true},
		{name: "uppercase", input: "Goods", want: false},
		{name: "leading underscore", input: "_goods", want: false},
		{name: "contains space", input: "my goods", want: false},
		{name: "dot", input: ".", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isValidIndexName(tt.input))
		})
	}
}
