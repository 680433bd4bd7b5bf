package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultIndex        = "goods"
	defaultIDField      = "id"
	defaultSuggestField = "goods_name"
	defaultSuggestSize  = 20
	suggestionName      = "suggestion"
)

// Engine is the search engine client the facade drives. Implementations own
// transport, authentication, pooling and retries.
type Engine interface {
	Search(ctx context.Context, index string, body map[string]interface{}, from, size int) (json.RawMessage, error)
	// Get returns nil when the document does not exist.
	Get(ctx context.Context, index, id string) (json.RawMessage, error)
	Index(ctx context.Context, index, id string, body map[string]interface{}) (map[string]interface{}, error)
	Update(ctx context.Context, index, id string, body map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, index, id string) (map[string]interface{}, error)

	CreateIndex(ctx context.Context, index string, body map[string]interface{}) (map[string]interface{}, error)
	DeleteIndex(ctx context.Context, index string) (map[string]interface{}, error)
	PutSettings(ctx context.Context, index string, body map[string]interface{}) (map[string]interface{}, error)
	GetSettings(ctx context.Context, indices ...string) (map[string]interface{}, error)
	PutMapping(ctx context.Context, index string, body map[string]interface{}) (map[string]interface{}, error)
	GetMapping(ctx context.Context, indices ...string) (map[string]interface{}, error)
}

// Client binds an Engine to default index and field names. It holds no
// per-query state and is safe for concurrent use.
type Client struct {
	engine       Engine
	index        string
	idField      string
	suggestField string
	logger       *zap.Logger
}

// Option customizes a Client built by NewClient.
type Option func(*Client)

// WithIndex sets the default index.
func WithIndex(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.index = name
		}
	}
}

// WithIDField sets the document field used as the engine document id.
func WithIDField(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.idField = name
		}
	}
}

// WithSuggestField sets the field queried by Suggest.
func WithSuggestField(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.suggestField = name
		}
	}
}

// WithLogger sets the logger used for operation diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient wraps an engine.
func NewClient(engine Engine, opts ...Option) *Client {
	c := &Client{
		engine:       engine,
		index:        defaultIndex,
		idField:      defaultIDField,
		suggestField: defaultSuggestField,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query starts a query against the default index.
func (c *Client) Query() Query {
	return newQuery(c)
}

// Index starts a query against the named index.
func (c *Client) Index(name string) Query {
	return newQuery(c).Index(name)
}

// Engine returns the underlying engine.
func (c *Client) Engine() Engine {
	return c.engine
}

func (q Query) bound() (*Client, error) {
	if q.client == nil || q.client.engine == nil {
		return nil, &ConfigurationError{Message: "query is not bound to a client"}
	}
	return q.client, nil
}

// Get runs the search from the first hit.
func (q Query) Get(ctx context.Context) (*Page, error) {
	q.page = defaultPage
	return q.search(ctx)
}

// Paginate runs the search starting at (page-1)*limit and records page on the result.
func (q Query) Paginate(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = defaultPage
	}
	q.page = page
	return q.search(ctx)
}

// search runs the body for q.page.
func (q Query) search(ctx context.Context) (*Page, error) {
	from := (q.page - 1) * q.limit
	c, err := q.bound()
	if err != nil {
		return nil, err
	}

	body, err := q.Body()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := c.engine.Search(ctx, q.index, body, from, q.limit)
	if err != nil {
		c.logger.Debug("search failed", zap.String("index", q.index), zap.Int("from", from), zap.Error(err))
		return nil, err
	}

	result, err := decodePage(raw, q.page)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("search completed",
		zap.String("index", q.index),
		zap.Int("from", from),
		zap.Int("size", q.limit),
		zap.Int64("total", result.Total),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// First looks a document up by id. It returns nil, nil when the document does
// not exist or carries no source.
func (q Query) First(ctx context.Context, id string) (*Document, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, newValidationError("first", "document id cannot be empty")
	}

	raw, err := c.engine.Get(ctx, q.index, id)
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw)
}

// Suggest runs a term suggester for the query string against the suggest field.
func (q Query) Suggest(ctx context.Context) ([]Suggestion, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.text) == "" {
		return nil, newValidationError("suggest", "query string cannot be empty")
	}

	raw, err := c.engine.Search(ctx, q.index, suggestBody(q.text, c.suggestField), 0, 0)
	if err != nil {
		return nil, err
	}
	return decodeSuggestions(raw)
}

// Create indexes doc under the id held in its id field.
func (q Query) Create(ctx context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	id, err := q.documentID("create", doc)
	if err != nil {
		return nil, err
	}
	return c.engine.Index(ctx, q.index, id, doc)
}

// Update partially updates the document identified by doc's id field.
func (q Query) Update(ctx context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	id, err := q.documentID("update", doc)
	if err != nil {
		return nil, err
	}
	return c.engine.Update(ctx, q.index, id, map[string]interface{}{"doc": doc})
}

// Destroy deletes one document.
func (q Query) Destroy(ctx context.Context, id string) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, newValidationError("destroy", "document id cannot be empty")
	}
	return c.engine.Delete(ctx, q.index, id)
}

// CreateMany indexes each document in order. Every document is validated
// before any request is sent; after that each request stands alone, so a
// failure part way leaves earlier documents indexed.
func (q Query) CreateMany(ctx context.Context, docs []map[string]interface{}) (BatchResults, error) {
	return q.batchDocuments(ctx, "create", docs, func(ctx context.Context, c *Client, id string, doc map[string]interface{}) (map[string]interface{}, error) {
		return c.engine.Index(ctx, q.index, id, doc)
	})
}

// UpdateMany partially updates each document in order with the same
// validation and partial failure behavior as CreateMany.
func (q Query) UpdateMany(ctx context.Context, docs []map[string]interface{}) (BatchResults, error) {
	return q.batchDocuments(ctx, "update", docs, func(ctx context.Context, c *Client, id string, doc map[string]interface{}) (map[string]interface{}, error) {
		return c.engine.Update(ctx, q.index, id, map[string]interface{}{"doc": doc})
	})
}

// DestroyMany deletes each id in order and reports every outcome.
func (q Query) DestroyMany(ctx context.Context, ids []string) (BatchResults, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, newValidationError("destroy", "document ids cannot be empty")
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, newValidationError("destroy", "document id at position %d cannot be empty", i)
		}
	}

	results := make(BatchResults, 0, len(ids))
	for i, id := range ids {
		resp, err := c.engine.Delete(ctx, q.index, id)
		results = append(results, BatchResult{Position: i, ID: id, Response: resp, Err: err})
	}
	return results, results.Err()
}

type documentCall func(ctx context.Context, c *Client, id string, doc map[string]interface{}) (map[string]interface{}, error)

func (q Query) batchDocuments(ctx context.Context, op string, docs []map[string]interface{}, call documentCall) (BatchResults, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, newValidationError(op, "no documents given")
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		id, err := q.documentID(op, doc)
		if err != nil {
			return nil, fmt.Errorf("document at position %d: %w", i, err)
		}
		ids[i] = id
	}

	results := make(BatchResults, 0, len(docs))
	for i, doc := range docs {
		resp, err := call(ctx, c, ids[i], doc)
		if err != nil {
			c.logger.Warn("batch item failed",
				zap.String("op", op),
				zap.String("index", q.index),
				zap.String("id", ids[i]),
				zap.Error(err))
		}
		results = append(results, BatchResult{Position: i, ID: ids[i], Response: resp, Err: err})
	}
	return results, results.Err()
}

// Clear deletes the whole index.
func (q Query) Clear(ctx context.Context) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	return c.engine.DeleteIndex(ctx, q.index)
}

// CreateIndex creates the index from a settings and mappings body. The body
// must carry a non-empty settings object.
func (q Query) CreateIndex(ctx context.Context, body map[string]interface{}) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if err := requireSettings("create index", body); err != nil {
		return nil, err
	}
	return c.engine.CreateIndex(ctx, q.index, body)
}

// UpdateSettings updates dynamic index settings. The body must carry a
// non-empty settings object.
func (q Query) UpdateSettings(ctx context.Context, body map[string]interface{}) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if err := requireSettings("update settings", body); err != nil {
		return nil, err
	}
	return c.engine.PutSettings(ctx, q.index, body)
}

// GetSettings reads settings for indices, or for the query's index when none are given.
func (q Query) GetSettings(ctx context.Context, indices ...string) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	return c.engine.GetSettings(ctx, q.targetIndices(indices)...)
}

// PutMapping sets field mappings on the index with _source enabled.
func (q Query) PutMapping(ctx context.Context, properties map[string]interface{}) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, newValidationError("put mapping", "properties cannot be empty")
	}
	body := map[string]interface{}{
		"_source":    map[string]interface{}{"enabled": true},
		"properties": properties,
	}
	return c.engine.PutMapping(ctx, q.index, body)
}

// GetMapping reads mappings for indices, or for the query's index when none are given.
func (q Query) GetMapping(ctx context.Context, indices ...string) (map[string]interface{}, error) {
	c, err := q.bound()
	if err != nil {
		return nil, err
	}
	return c.engine.GetMapping(ctx, q.targetIndices(indices)...)
}

func (q Query) targetIndices(indices []string) []string {
	out := cleanStrings(indices)
	if len(out) == 0 {
		return []string{q.index}
	}
	return out
}

func (q Query) documentID(op string, doc map[string]interface{}) (string, error) {
	if doc == nil {
		return "", newValidationError(op, "document must be a mapping")
	}
	raw, ok := doc[q.idField]
	if !ok || raw == nil {
		return "", newValidationError(op, "index key required: missing %q", q.idField)
	}
	id := idString(raw)
	if strings.TrimSpace(id) == "" {
		return "", newValidationError(op, "index key required: empty %q", q.idField)
	}
	return id, nil
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

func requireSettings(op string, body map[string]interface{}) error {
	settings, ok := body["settings"]
	if !ok || isEmpty(settings) {
		return newValidationError(op, "settings cannot be empty")
	}
	return nil
}

func isEmpty(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return true
	case map[string]interface{}:
		return len(value) == 0
	case []interface{}:
		return len(value) == 0
	case string:
		return value == ""
	default:
		return false
	}
}

// BatchResult is the outcome of one item of a batch call.
type BatchResult struct {
	Position int
	ID       string
	Response map[string]interface{}
	Err      error
}

// BatchResults holds batch outcomes in input order.
type BatchResults []BatchResult

// Failed returns the items that returned an error.
func (r BatchResults) Failed() []BatchResult {
	var failed []BatchResult
	for _, item := range r {
		if item.Err != nil {
			failed = append(failed, item)
		}
	}
	return failed
}

// Err joins the item errors, or returns nil when every item succeeded.
func (r BatchResults) Err() error {
	var errs []error
	for _, item := range r {
		if item.Err != nil {
			errs = append(errs, fmt.Errorf("item %d (id %s): %w", item.Position, item.ID, item.Err))
		}
	}
	return errors.Join(errs...)
}

// ParseDocuments turns a decoded JSON or YAML payload into documents. A single
// mapping yields one document; a list must hold only mappings.
func ParseDocuments(payload interface{}) ([]map[string]interface{}, error) {
	switch value := payload.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{value}, nil
	case []map[string]interface{}:
		return value, nil
	case []interface{}:
		docs := make([]map[string]interface{}, 0, len(value))
		for i, item := range value {
			doc, ok := item.(map[string]interface{})
			if !ok {
				return nil, newValidationError("parse documents", "item %d is not a mapping", i)
			}
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		return nil, newValidationError("parse documents", "payload must be a mapping or a list of mappings, got %T", payload)
	}
}
