package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoHits = `{
	"took": 4,
	"timed_out": false,
	"_shards": {"total": 1, "successful": 1, "skipped": 0, "failed": 0},
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"max_score": 1.5,
		"hits": [
			{"_index": "goods", "_id": "1", "_score": 1.5, "_source": {"id": 1, "goods_name": "green tea"}, "highlight": {"goods_name": ["<em>green</em> tea"]}},
			{"_index": "goods", "_type": "_doc", "_id": "2", "_score": 0.5, "_source": {"id": 2, "goods_name": "black tea"}}
		]
	}
}`

func TestCreateSendsDocumentAsBody(t *testing.T) {
	engine := &recordingEngine{}
	q := NewClient(engine).Query()
	doc := map[string]interface{}{"id": 7, "goods_name": "tea"}

	_, err := q.Create(context.Background(), doc)
	require.NoError(t, err)

	calls := engine.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, engineCall{Op: "index", Index: "goods", ID: "7", Body: doc}, calls[0])
}

func TestUpdateWrapsDocument(t *testing.T) {
	engine := &recordingEngine{}
	q := NewClient(engine, WithIDField("sku")).Index("products")
	doc := map[string]interface{}{"sku": "A-1", "price": 3}

	_, err := q.Update(context.Background(), doc)
	require.NoError(t, err)

	calls := engine.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "update", calls[0].Op)
	assert.Equal(t, "products", calls[0].Index)
	assert.Equal(t, "A-1", calls[0].ID)
	assert.Equal(t, map[string]interface{}{"doc": doc}, calls[0].Body)
}

func TestCreateRequiresIDField(t *testing.T) {
	engine := &recordingEngine{}
	q := NewClient(engine).Query()

	_, err := q.Create(context.Background(), map[string]interface{}{"goods_name": "tea"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "index key required")

	_, err = q.Update(context.Background(), map[string]interface{}{"id": ""})
	assert.True(t, IsValidation(err))

	_, err = q.Create(context.Background(), nil)
	assert.True(t, IsValidation(err))

	assert.Empty(t, engine.Calls())
}

func TestCreateManyPreservesOrder(t *testing.T) {
	engine := &recordingEngine{}
	q := NewClient(engine).Query()
	docs := []map[string]interface{}{
		{"id": 3.0, "n": "c"},
		{"id": 1.0, "n": "a"},
		{"id": 2.0, "n": "b"},
	}

	results, err := q.CreateMany(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	calls := engine.Calls()
	require.Len(t, calls, 3)
	for i, want := range []string{"3", "1", "2"} {
		assert.Equal(t, want, calls[i].ID)
		assert.Equal(t, docs[i], calls[i].Body)
		assert.Equal(t, i, results[i].Position)
		assert.Equal(t, want, results[i].ID)
		assert.NoError(t, results[i].Err)
	}
}

func TestUpdateManyValidatesBeforeSending(t *testing.T) {
	engine := &recordingEngine{}
	q := NewClient(engine).Query()

	_, err := q.UpdateMany(context.Background(), []map[string]interface{}{
		{"id": 1},
		{"name": "missing id"},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, engine.Calls())

	_, err = q.UpdateMany(context.Background(), nil)
	assert.True(t, IsValidation(err))
}

func TestBatchReportsPartialFailure(t *testing.T) {
	engine := &recordingEngine{failIDs: map[string]error{"2": errEngineDown}}
	q := NewClient(engine).Query()

	results, err := q.CreateMany(context.Background(), []map[string]interface{}{
		{"id": "1"}, {"id": "2"}, {"id": "3"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errEngineDown)
	require.Len(t, results, 3)
	assert.Len(t, engine.Calls(), 3, "later items are still sent")

	failed := results.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Position)
	assert.Equal(t, "2", failed[0].ID)
	assert.NotNil(t, results[0].Response)
	assert.NotNil(t, results[2].Response)
}

func TestDestroy(t *testing.T) {
	engine := &recordingEngine{failIDs: map[string]error{"b": errEngineDown}}
	q := NewClient(engine).Query()
	ctx := context.Background()

	_, err := q.Destroy(ctx, "a")
	require.NoError(t, err)

	_, err = q.Destroy(ctx, "")
	assert.True(t, IsValidation(err))

	_, err = q.DestroyMany(ctx, nil)
	assert.True(t, IsValidation(err))

	results, err := q.DestroyMany(ctx, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, errEngineDown)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	ids := make([]string, 0)
	for _, call := range engine.Calls() {
		assert.Equal(t, "delete", call.Op)
		ids = append(ids, call.ID)
	}
	assert.Equal(t, []string{"a", "a", "b", "c"}, ids)
}

func TestGetNormalizesPage(t *testing.T) {
	engine := &recordingEngine{searchResponse: json.RawMessage(twoHits)}
	q := NewClient(engine).Query().Limit(5).WhereEq("status", 1)

	page, err := q.Get(context.Background())
	require.NoError(t, err)

	calls := engine.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0, calls[0].From)
	assert.Equal(t, 5, calls[0].Size)
	assert.Equal(t, "goods", calls[0].Index)

	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, int64(4), page.Took)
	require.NotNil(t, page.MaxScore)
	assert.Equal(t, 1.5, *page.MaxScore)
	require.NotNil(t, page.Shards)
	assert.Equal(t, 1, page.Shards.Successful)
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "doc", first.Type)
	assert.Equal(t, []string{"<em>green</em> tea"}, first.Highlight["goods_name"])
	name, ok := first.Get("goods_name")
	assert.True(t, ok)
	assert.Equal(t, "green tea", name)
	assert.Equal(t, "_doc", page.Items[1].Type)
}

func TestPaginateOffset(t *testing.T) {
	engine := &recordingEngine{searchResponse: json.RawMessage(twoHits)}
	q := NewClient(engine).Query().Limit(10)

	page, err := q.Paginate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)

	calls := engine.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 20, calls[0].From)
	assert.Equal(t, 10, calls[0].Size)

	_, err = q.Paginate(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, engine.Calls()[1].From)

	// Paginate works on a copy, so a later Get still starts at the first hit.
	_, err = q.Paginate(context.Background(), 4)
	require.NoError(t, err)
	page, err = q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	calls = engine.Calls()
	assert.Equal(t, 30, calls[2].From)
	assert.Equal(t, 0, calls[3].From)
}

func TestGetUnsupportedClauseSendsNothing(t *testing.T) {
	engine := &recordingEngine{}
	_, err := NewClient(engine).Query().WhereRaw("a = 1").Get(context.Background())

	require.ErrorIs(t, err, ErrUnsupportedClause)
	assert.Empty(t, engine.Calls())
}

func TestFirst(t *testing.T) {
	ctx := context.Background()

	engine := &recordingEngine{getResponse: json.RawMessage(`{"_index":"goods","_id":"9","_source":{"id":9}}`)}
	doc, err := NewClient(engine).Query().First(ctx, "9")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "9", doc.ID)
	assert.Equal(t, "9", engine.Calls()[0].ID)

	for name, raw := range map[string]string{
		"missing source": `{"_index":"goods","_id":"9","found":true}`,
		"null source":    `{"_index":"goods","_id":"9","_source":null}`,
		"not found":      ``,
	} {
		t.Run(name, func(t *testing.T) {
			engine := &recordingEngine{getResponse: json.RawMessage(raw)}
			doc, err := NewClient(engine).Query().First(ctx, "9")
			require.NoError(t, err)
			assert.Nil(t, doc)
		})
	}
}

func TestSuggest(t *testing.T) {
	engine := &recordingEngine{searchResponse: json.RawMessage(`{
		"took": 1,
		"hits": {"total": 0, "hits": []},
		"suggest": {"suggestion": [
			{"text": "tae", "offset": 0, "length": 3, "options": [{"text": "tea", "score": 0.66, "freq": 12}]}
		]}
	}`)}
	q := NewClient(engine, WithSuggestField("title")).Query().QueryString("tae")

	suggestions, err := q.Suggest(context.Background())
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Options, 1)
	assert.Equal(t, "tea", suggestions[0].Options[0].Text)

	body, err := json.Marshal(engine.Calls()[0].Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 0,
		"suggest": {
			"text": "tae",
			"suggestion": {"term": {"field": "title", "suggest_mode": "always", "size": 20}}
		}
	}`, string(body))

	_, err = NewClient(engine).Query().Suggest(context.Background())
	assert.True(t, IsValidation(err))
}

func TestIndexAdministration(t *testing.T) {
	engine := &recordingEngine{}
	q := NewClient(engine).Query()
	ctx := context.Background()

	_, err := q.CreateIndex(ctx, map[string]interface{}{"mappings": map[string]interface{}{}})
	assert.True(t, IsValidation(err))
	_, err = q.CreateIndex(ctx, map[string]interface{}{"settings": map[string]interface{}{}})
	assert.True(t, IsValidation(err))
	_, err = q.UpdateSettings(ctx, map[string]interface{}{})
	assert.True(t, IsValidation(err))
	_, err = q.UpdateSettings(ctx, map[string]interface{}{"settings": nil})
	assert.True(t, IsValidation(err))
	assert.Empty(t, engine.Calls())

	settings := map[string]interface{}{"settings": map[string]interface{}{"number_of_replicas": 0}}
	_, err = q.CreateIndex(ctx, settings)
	require.NoError(t, err)
	_, err = q.UpdateSettings(ctx, settings)
	require.NoError(t, err)

	properties := map[string]interface{}{"price": map[string]interface{}{"type": "integer"}}
	_, err = q.PutMapping(ctx, properties)
	require.NoError(t, err)

	_, err = q.GetSettings(ctx)
	require.NoError(t, err)
	_, err = q.GetMapping(ctx, "a", "b")
	require.NoError(t, err)
	_, err = q.Clear(ctx)
	require.NoError(t, err)

	calls := engine.Calls()
	require.Len(t, calls, 6)
	assert.Equal(t, "create_index", calls[0].Op)
	assert.Equal(t, "put_settings", calls[1].Op)
	assert.Equal(t, settings, calls[1].Body)
	assert.Equal(t, map[string]interface{}{
		"_source":    map[string]interface{}{"enabled": true},
		"properties": properties,
	}, calls[2].Body)
	assert.Equal(t, []string{"goods"}, calls[3].Indices)
	assert.Equal(t, []string{"a", "b"}, calls[4].Indices)
	assert.Equal(t, engineCall{Op: "delete_index", Index: "goods"}, calls[5])
}

func TestUnboundQueryIsConfigurationError(t *testing.T) {
	_, err := Query{}.Get(context.Background())
	assert.True(t, IsConfiguration(err))
}

func TestParseDocuments(t *testing.T) {
	docs, err := ParseDocuments(map[string]interface{}{"id": 1})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = ParseDocuments([]interface{}{
		map[string]interface{}{"id": 1},
		map[string]interface{}{"id": 2},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = ParseDocuments([]interface{}{map[string]interface{}{"id": 1}, "nope"})
	assert.True(t, IsValidation(err))

	_, err = ParseDocuments("nope")
	assert.True(t, IsValidation(err))
}
