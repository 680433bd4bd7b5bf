package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/fluentsearch/internal/types"
)

type capturedRequest struct {
	Method string
	Path   string
	Body   []byte
	Auth   string
}

type fakeEngine struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	response string
}

func (f *fakeEngine) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   body,
		Auth:   r.Header.Get("Authorization"),
	})
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, response)
}

func (f *fakeEngine) last(t *testing.T) capturedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, engine *fakeEngine) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(engine.handler))
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		Addresses: []string{server.URL},
		Username:  "elastic",
		Password:  "changeme",
		RateLimit: 100,
		RateBurst: 100,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestClientSearchSendsBodyWithPaging(t *testing.T) {
	engine := &fakeEngine{response: `{"took":3,"timed_out":false,"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`}
	client := newTestClient(t, engine)

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{map[string]interface{}{"term": map[string]interface{}{"status": 1}}},
			},
		},
	}

	raw, err := client.Search(context.Background(), "goods", body, 20, 10)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"took":3`)

	req := engine.last(t)
	assert.Equal(t, "/goods/_search", req.Path)
	assert.NotEmpty(t, req.Auth, "basic auth should be passed through")

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, float64(20), sent["from"])
	assert.Equal(t, float64(10), sent["size"])
	assert.Contains(t, sent, "query")
	assert.NotContains(t, body, "from", "caller body must not be modified")
}

func TestClientDocumentCalls(t *testing.T) {
	engine := &fakeEngine{response: `{"result":"created","_id":"7"}`}
	client := newTestClient(t, engine)
	ctx := context.Background()

	resp, err := client.Index(ctx, "goods", "7", map[string]interface{}{"id": 7, "goods_name": "tea"})
	require.NoError(t, err)
	assert.Equal(t, "created", resp["result"])
	req := engine.last(t)
	assert.Equal(t, "/goods/_doc/7", req.Path)
	assert.JSONEq(t, `{"id":7,"goods_name":"tea"}`, string(req.Body))

	_, err = client.Update(ctx, "goods", "7", map[string]interface{}{"doc": map[string]interface{}{"price": 3}})
	require.NoError(t, err)
	req = engine.last(t)
	assert.Equal(t, "/goods/_update/7", req.Path)
	assert.JSONEq(t, `{"doc":{"price":3}}`, string(req.Body))

	_, err = client.Delete(ctx, "goods", "7")
	require.NoError(t, err)
	req = engine.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/goods/_doc/7", req.Path)
}

func TestClientGetMissingDocumentReturnsNil(t *testing.T) {
	engine := &fakeEngine{
		status:   http.StatusNotFound,
		response: `{"_index":"goods","_id":"404","found":false}`,
	}
	client := newTestClient(t, engine)

	raw, err := client.Get(context.Background(), "goods", "404")
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, "/goods/_doc/404", engine.last(t).Path)
}

func TestClientGetMissingIndexIsError(t *testing.T) {
	engine := &fakeEngine{
		status:   http.StatusNotFound,
		response: `{"error":{"type":"index_not_found_exception","reason":"no such index [goods]"},"status":404}`,
	}
	client := newTestClient(t, engine)

	_, err := client.Get(context.Background(), "goods", "1")
	require.Error(t, err)

	searchErr, ok := AsSearchError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeNotFound, searchErr.Type)
	assert.Equal(t, "get", searchErr.Op)
	assert.Contains(t, searchErr.Reason, "index_not_found_exception")
}

func TestClientClassifiesErrorStatus(t *testing.T) {
	engine := &fakeEngine{
		status:   http.StatusBadRequest,
		response: `{"error":{"type":"parsing_exception","reason":"unknown query [nope]"},"status":400}`,
	}
	client := newTestClient(t, engine)

	_, err := client.Search(context.Background(), "goods", map[string]interface{}{}, 0, 15)
	require.Error(t, err)

	searchErr, ok := AsSearchError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeOpenSearchQuery, searchErr.Type)
	assert.Equal(t, http.StatusBadRequest, searchErr.StatusCode)
	assert.Equal(t, "search", searchErr.Op)
	assert.False(t, searchErr.IsRetryable())
}

func TestClientIndexAdministration(t *testing.T) {
	engine := &fakeEngine{response: `{"acknowledged":true}`}
	client := newTestClient(t, engine)
	ctx := context.Background()

	_, err := client.CreateIndex(ctx, "goods", map[string]interface{}{
		"settings": map[string]interface{}{"number_of_shards": 1},
	})
	require.NoError(t, err)
	req := engine.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/goods", req.Path)

	_, err = client.PutSettings(ctx, "goods", map[string]interface{}{
		"settings": map[string]interface{}{"number_of_replicas": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "/goods/_settings", engine.last(t).Path)

	_, err = client.GetSettings(ctx, "goods")
	require.NoError(t, err)
	req = engine.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/goods/_settings", req.Path)

	_, err = client.PutMapping(ctx, "goods", map[string]interface{}{
		"properties": map[string]interface{}{"price": map[string]interface{}{"type": "integer"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/goods/_mapping", engine.last(t).Path)

	_, err = client.GetMapping(ctx, "goods")
	require.NoError(t, err)
	assert.Equal(t, "/goods/_mapping", engine.last(t).Path)

	resp, err := client.DeleteIndex(ctx, "goods")
	require.NoError(t, err)
	assert.Equal(t, true, resp["acknowledged"])
	req = engine.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/goods", req.Path)
}

func TestHealthCheckRejectsRedCluster(t *testing.T) {
	engine := &fakeEngine{response: `{"cluster_name":"test","status":"red"}`}
	client := newTestClient(t, engine)

	err := client.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Equal(t, "/_cluster/health", engine.last(t).Path)

	engine.mu.Lock()
	engine.response = `{"cluster_name":"test","status":"green"}`
	engine.mu.Unlock()
	require.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewClientRequiresAddresses(t *testing.T) {
	_, err := NewClient(&Config{}, nil)
	require.Error(t, err)

	_, err = NewClient(nil, nil)
	require.Error(t, err)
}

func TestConfigValidateClamps(t *testing.T) {
	cfg := &Config{
		Addresses:      []string{"http://localhost:9200"},
		RateLimit:      5000,
		RateBurst:      -1,
		RequestTimeout: time.Hour,
		MaxRetries:     -3,
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000.0, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, 600*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 90*time.Second, cfg.IdleConnTimeout)

	assert.Error(t, (&Config{}).Validate())
}
