// Package classify submits batches of survey comments to an external
// classification service and returns per-comment structured results.
//
// A call has exactly two outcomes: a result array, which may omit any of
// the submitted items, or an error that fails the whole batch. Detecting
// omitted items is the caller's concern.
package classify

import "context"

// Classifier classifies a batch of items.
type Classifier interface {
	Classify(ctx context.Context, req Request) ([]ItemResult, error)
}

// Request is a single classification call.
type Request struct {
	Items        []Item     `json:"items"`
	Categories   []Category `json:"categories"`
	Units        []string   `json:"units"`
	Instructions string     `json:"instructions,omitempty"`
}

// Item is a comment submitted for classification.
type Item struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Category is a taxonomy entry the classifier may assign by name.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ItemResult holds the results the classifier produced for one submitted item.
type ItemResult struct {
	ItemID  int64    `json:"id"`
	Results []Result `json:"results"`
}

// Result is one classified span of a comment. Sentiment and Category are
// returned as the classifier wrote them; mapping to internal identifiers
// happens downstream.
type Result struct {
	Text        string  `json:"text"`
	Sentiment   string  `json:"sentiment"`
	Category    string  `json:"category"`
	RelatedUnit *string `json:"related_unit,omitempty"`
	Suggestion  bool    `json:"suggestion"`
}
