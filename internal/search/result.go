package search

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const defaultDocumentType = "doc"

// Document is a normalized engine document: its source fields plus hit metadata.
type Document struct {
	Source    map[string]interface{} `json:"_source"`
	Index     string                 `json:"_index"`
	Type      string                 `json:"_type,omitempty"`
	ID        string                 `json:"_id"`
	Score     *float64               `json:"_score,omitempty"`
	Highlight map[string][]string    `json:"highlight,omitempty"`
}

// Get returns a source field.
func (d *Document) Get(field string) (interface{}, bool) {
	if d == nil || d.Source == nil {
		return nil, false
	}
	v, ok := d.Source[field]
	return v, ok
}

// Shards is the shard report attached to search responses.
type Shards struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Bucket is one terms aggregation bucket.
type Bucket struct {
	Key      interface{} `json:"key"`
	DocCount int64       `json:"doc_count"`
}

// Page is a normalized hit list.
type Page struct {
	Items         []*Document         `json:"items"`
	Total         int64               `json:"total"`
	TotalRelation string              `json:"total_relation,omitempty"`
	Page          int                 `json:"page"`
	MaxScore      *float64            `json:"max_score"`
	Took          int64               `json:"took"`
	TimedOut      bool                `json:"timed_out"`
	ScrollID      string              `json:"scroll_id,omitempty"`
	Shards        *Shards             `json:"shards,omitempty"`
	Facets        map[string][]Bucket `json:"facets,omitempty"`
}

// Suggestion is one analyzed token of a term suggester response.
type Suggestion struct {
	Text    string          `json:"text"`
	Offset  int             `json:"offset"`
	Length  int             `json:"length"`
	Options []SuggestOption `json:"options"`
}

// SuggestOption is a candidate correction for a Suggestion.
type SuggestOption struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Freq  int64   `json:"freq"`
}

// hitsTotal accepts both the legacy integer total and the {"value": N} object.
type hitsTotal struct {
	Value    int64
	Relation string
}

func (t *hitsTotal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = hitsTotal{}
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			Value    int64  `json:"value"`
			Relation string `json:"relation"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode hits.total object: %w", err)
		}
		*t = hitsTotal{Value: obj.Value, Relation: obj.Relation}
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode hits.total: %w", err)
	}
	*t = hitsTotal{Value: n, Relation: "eq"}
	return nil
}

type searchResponse struct {
	Took     int64   `json:"took"`
	TimedOut bool    `json:"timed_out"`
	ScrollID string  `json:"_scroll_id"`
	Shards   *Shards `json:"_shards"`
	Hits     *struct {
		Total    hitsTotal   `json:"total"`
		MaxScore *float64    `json:"max_score"`
		Hits     []*Document `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []Bucket `json:"buckets"`
	} `json:"aggregations"`
	Suggest map[string][]Suggestion `json:"suggest"`
}

// decodePage normalizes a search response. A response without hits is an
// empty page.
func decodePage(raw json.RawMessage, page int) (*Page, error) {
	out := &Page{Items: []*Document{}, Page: page}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if resp.Hits == nil {
		return out, nil
	}

	for _, hit := range resp.Hits.Hits {
		if hit == nil {
			continue
		}
		if hit.Type == "" {
			hit.Type = defaultDocumentType
		}
		if hit.Source == nil {
			hit.Source = map[string]interface{}{}
		}
		out.Items = append(out.Items, hit)
	}

	out.Total = resp.Hits.Total.Value
	out.TotalRelation = resp.Hits.Total.Relation
	out.MaxScore = resp.Hits.MaxScore
	out.Took = resp.Took
	out.TimedOut = resp.TimedOut
	out.ScrollID = resp.ScrollID
	out.Shards = resp.Shards

	if len(resp.Aggregations) > 0 {
		out.Facets = make(map[string][]Bucket, len(resp.Aggregations))
		for name, agg := range resp.Aggregations {
			out.Facets[name] = agg.Buckets
		}
	}

	return out, nil
}

// decodeDocument normalizes a point lookup response. A response without
// _source, or with a null _source, yields nil.
func decodeDocument(raw json.RawMessage) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var envelope struct {
		Source json.RawMessage `json:"_source"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode document response: %w", err)
	}
	source := bytes.TrimSpace(envelope.Source)
	if len(source) == 0 || bytes.Equal(source, []byte("null")) {
		return nil, nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document response: %w", err)
	}
	if doc.Source == nil {
		doc.Source = map[string]interface{}{}
	}
	return &doc, nil
}

func decodeSuggestions(raw json.RawMessage) ([]Suggestion, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []Suggestion{}, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode suggest response: %w", err)
	}
	suggestions := resp.Suggest[suggestionName]
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return suggestions, nil
}
