package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"trendlens/internal/dataset"
)

// Partition is the raw output of a Clusterer: one label per point in [0, k)
// and one centroid per label, in the same space as the input points.
type Partition struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// Clusterer groups points into k clusters. Implementations must be
// deterministic for identical input.
type Clusterer interface {
	Cluster(ctx context.Context, points [][]float64, k int) (*Partition, error)
}

// ClusterSummary describes one cluster. Centroid is in standardized space,
// Means in the original units of the missing-filled columns.
type ClusterSummary struct {
	ID       int       `json:"id"`
	Size     int       `json:"size"`
	Centroid []float64 `json:"centroid"`
	Means    []float64 `json:"means"`
	TopTopic string    `json:"top_topic"`
}

// ClusterAssignment maps every row to a cluster id. Columns orders the
// entries of each Centroid and Means vector.
type ClusterAssignment struct {
	K        int              `json:"k"`
	Columns  []string         `json:"columns"`
	Labels   []int            `json:"labels"`
	Clusters []ClusterSummary `json:"clusters"`
}

// Clusters fills missing numeric cells with 0, standardizes every column and
// hands the rows to clusterer. K must be in [1, rows].
func Clusters(ctx context.Context, table *dataset.NormalizedTable, req ViewRequest, clusterer Clusterer) (*ClusterAssignment, error) {
	names := table.NumericColumns()
	if len(names) == 0 {
		return nil, ErrNoNumericColumns
	}
	rows := table.Rows()
	if req.K < 1 || req.K > rows {
		return nil, fmt.Errorf("%w: k=%d with %d rows", ErrInvalidK, req.K, rows)
	}

	raw := make([][]float64, len(names))
	scaled := make([][]float64, len(names))
	for j, name := range names {
		values, err := table.Numeric(name)
		if err != nil {
			return nil, fmt.Errorf("clusters: %w", err)
		}
		raw[j] = fillMissing(values, 0)
		scaled[j], err = standardize(raw[j])
		if err != nil {
			return nil, fmt.Errorf("standardize %s: %w", name, err)
		}
	}

	points := make([][]float64, rows)
	for i := range points {
		points[i] = make([]float64, len(names))
		for j := range names {
			points[i][j] = scaled[j][i]
		}
	}

	part, err := clusterer.Cluster(ctx, points, req.K)
	if err != nil {
		return nil, fmt.Errorf("clusters: %w", err)
	}
	if len(part.Labels) != rows || len(part.Centroids) != req.K {
		return nil, fmt.Errorf("clusters: clusterer returned %d labels and %d centroids for %d rows and k=%d",
			len(part.Labels), len(part.Centroids), rows, req.K)
	}

	return summarize(names, raw, part, req.K)
}

func summarize(names []string, raw [][]float64, part *Partition, k int) (*ClusterAssignment, error) {
	out := &ClusterAssignment{
		K:        k,
		Columns:  names,
		Labels:   append([]int(nil), part.Labels...),
		Clusters: make([]ClusterSummary, k),
	}
	for c := range out.Clusters {
		out.Clusters[c] = ClusterSummary{
			ID:       c,
			Centroid: append([]float64(nil), part.Centroids[c]...),
			Means:    make([]float64, len(names)),
		}
	}

	for i, label := range part.Labels {
		if label < 0 || label >= k {
			return nil, fmt.Errorf("clusters: label %d out of range [0, %d)", label, k)
		}
		out.Clusters[label].Size++
		for j := range names {
			out.Clusters[label].Means[j] += raw[j][i]
		}
	}

	for c := range out.Clusters {
		s := &out.Clusters[c]
		if s.Size == 0 {
			continue
		}
		best := math.Inf(-1)
		for j := range s.Means {
			s.Means[j] /= float64(s.Size)
			if s.Means[j] > best {
				best = s.Means[j]
				s.TopTopic = names[j]
			}
		}
	}
	return out, nil
}

func fillMissing(values []float64, fill float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			v = fill
		}
		out[i] = v
	}
	return out
}

// standardize scales values to zero mean and unit population variance. A
// constant column becomes all zeros.
func standardize(values []float64) ([]float64, error) {
	out := make([]float64, len(values))
	if len(values) == 0 || constant(values) {
		return out, nil
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil, err
	}
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		out[i] = (v - mean) / sd
	}
	return out, nil
}
