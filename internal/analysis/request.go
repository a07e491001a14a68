package analysis

import (
	"fmt"
	"slices"

	"trendlens/internal/dataset"
)

// DefaultK is the cluster count used when a request leaves K unset.
const DefaultK = 4

// ViewRequest carries the user's selections into a view. It is passed by
// value and never mutated.
type ViewRequest struct {
	Topic string
	K     int
}

// NewViewRequest returns a request for topic and k. A zero k means DefaultK.
func NewViewRequest(topic string, k int) ViewRequest {
	if k == 0 {
		k = DefaultK
	}
	return ViewRequest{Topic: topic, K: k}
}

// WithDefaults fills an empty topic with the first topic of table and a zero
// K with DefaultK.
func (r ViewRequest) WithDefaults(table *dataset.NormalizedTable) ViewRequest {
	if r.Topic == "" {
		if topics := table.Topics(); len(topics) > 0 {
			r.Topic = topics[0]
		}
	}
	if r.K == 0 {
		r.K = DefaultK
	}
	return r
}

func resolveTopic(table *dataset.NormalizedTable, topic string) ([]float64, error) {
	if !slices.Contains(table.Topics(), topic) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	return table.Numeric(topic)
}
