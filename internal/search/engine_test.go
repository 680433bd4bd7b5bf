package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

type engineCall struct {
	Op      string
	Index   string
	Indices []string
	ID      string
	Body    map[string]interface{}
	From    int
	Size    int
}

// recordingEngine records every call and answers from canned responses.
type recordingEngine struct {
	mu    sync.Mutex
	calls []engineCall

	searchResponse json.RawMessage
	getResponse    json.RawMessage
	failIDs        map[string]error
}

func (e *recordingEngine) record(call engineCall) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	if err, ok := e.failIDs[call.ID]; ok && call.ID != "" {
		return err
	}
	return nil
}

func (e *recordingEngine) Calls() []engineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engineCall(nil), e.calls...)
}

func (e *recordingEngine) ack(call engineCall) (map[string]interface{}, error) {
	if err := e.record(call); err != nil {
		return nil, err
	}
	return map[string]interface{}{"result": call.Op, "_id": call.ID}, nil
}

func (e *recordingEngine) Search(_ context.Context, index string, body map[string]interface{}, from, size int) (json.RawMessage, error) {
	if err := e.record(engineCall{Op: "search", Index: index, Body: body, From: from, Size: size}); err != nil {
		return nil, err
	}
	return e.searchResponse, nil
}

func (e *recordingEngine) Get(_ context.Context, index, id string) (json.RawMessage, error) {
	if err := e.record(engineCall{Op: "get", Index: index, ID: id}); err != nil {
		return nil, err
	}
	return e.getResponse, nil
}

func (e *recordingEngine) Index(_ context.Context, index, id string, body map[string]interface{}) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "index", Index: index, ID: id, Body: body})
}

func (e *recordingEngine) Update(_ context.Context, index, id string, body map[string]interface{}) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "update", Index: index, ID: id, Body: body})
}

func (e *recordingEngine) Delete(_ context.Context, index, id string) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "delete", Index: index, ID: id})
}

func (e *recordingEngine) CreateIndex(_ context.Context, index string, body map[string]interface{}) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "create_index", Index: index, Body: body})
}

func (e *recordingEngine) DeleteIndex(_ context.Context, index string) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "delete_index", Index: index})
}

func (e *recordingEngine) PutSettings(_ context.Context, index string, body map[string]interface{}) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "put_settings", Index: index, Body: body})
}

func (e *recordingEngine) GetSettings(_ context.Context, indices ...string) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "get_settings", Indices: indices})
}

func (e *recordingEngine) PutMapping(_ context.Context, index string, body map[string]interface{}) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "put_mapping", Index: index, Body: body})
}

func (e *recordingEngine) GetMapping(_ context.Context, indices ...string) (map[string]interface{}, error) {
	return e.ack(engineCall{Op: "get_mapping", Indices: indices})
}

var errEngineDown = errors.New("engine down")
