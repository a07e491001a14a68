package analysis

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Defaults for KMeans.
const (
	DefaultSeed          int64 = 42
	DefaultRestarts            = 10
	DefaultMaxIterations       = 300
	DefaultTolerance           = 1e-4
)

// KMeans is Lloyd's algorithm with k-means++ seeding. Each restart draws its
// seeds from one random source created from Seed, and the partition with the
// lowest inertia wins, so identical input always gives identical output.
type KMeans struct {
	Seed          int64
	Restarts      int
	MaxIterations int
	Tolerance     float64
}

// NewKMeans returns a KMeans with the given seed and limits. Zero values take
// the package defaults.
func NewKMeans(seed int64, restarts, maxIterations int) *KMeans {
	km := &KMeans{
		Seed:          seed,
		Restarts:      restarts,
		MaxIterations: maxIterations,
		Tolerance:     DefaultTolerance,
	}
	if km.Restarts <= 0 {
		km.Restarts = DefaultRestarts
	}
	if km.MaxIterations <= 0 {
		km.MaxIterations = DefaultMaxIterations
	}
	return km
}

// DefaultKMeans uses seed 42, 10 restarts and 300 iterations.
func DefaultKMeans() *KMeans {
	return NewKMeans(DefaultSeed, DefaultRestarts, DefaultMaxIterations)
}

// Cluster implements Clusterer.
func (km *KMeans) Cluster(ctx context.Context, points [][]float64, k int) (*Partition, error) {
	if k < 1 || k > len(points) {
		return nil, fmt.Errorf("%w: k=%d with %d points", ErrInvalidK, k, len(points))
	}

	rng := rand.New(rand.NewSource(km.Seed))
	var best *Partition
	for run := 0; run < km.Restarts; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part := km.lloyd(points, seedPlusPlus(points, k, rng))
		if best == nil || part.Inertia < best.Inertia {
			best = part
		}
	}
	relabel(best)
	return best, nil
}

func (km *KMeans) lloyd(points, centroids [][]float64) *Partition {
	labels := make([]int, len(points))
	assign := func() {
		for i, p := range points {
			labels[i], _ = nearest(p, centroids)
		}
		fillEmpty(points, labels, centroids)
	}

	for iter := 0; iter < km.MaxIterations; iter++ {
		assign()
		next := means(points, labels, len(centroids))
		shift := 0.0
		for c := range next {
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next
		if shift <= km.Tolerance {
			break
		}
	}

	assign()
	centroids = means(points, labels, len(centroids))
	inertia := 0.0
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return &Partition{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// means returns the centroid of every cluster. Every cluster must be
// non-empty.
func means(points [][]float64, labels []int, k int) [][]float64 {
	dim := len(points[0])
	out := make([][]float64, k)
	counts := make([]int, k)
	for c := range out {
		out[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(out[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range out {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), out[c])
		}
	}
	return out
}

// seedPlusPlus picks k initial centroids, each next one with probability
// proportional to its squared distance from the nearest centroid so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			_, dist[i] = nearest(p, centroids)
			total += dist[i]
		}

		pick := rng.Intn(len(points))
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target < 0 {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, clone(points[pick]))
	}
	return centroids
}

// fillEmpty moves the point farthest from its centroid into every empty
// cluster, taking only from clusters that keep at least one member.
func fillEmpty(points [][]float64, labels []int, centroids [][]float64) {
	counts := make([]int, len(centroids))
	for _, l := range labels {
		counts[l]++
	}
	for c, n := range counts {
		if n > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c]++
		centroids[c] = clone(points[far])
	}
}

// relabel renumbers clusters in order of first appearance.
func relabel(p *Partition) {
	mapping := make(map[int]int, len(p.Centroids))
	for _, l := range p.Labels {
		if _, ok := mapping[l]; !ok {
			mapping[l] = len(mapping)
		}
	}
	for c := range p.Centroids {
		if _, ok := mapping[c]; !ok {
			mapping[c] = len(mapping)
		}
	}
	centroids := make([][]float64, len(p.Centroids))
	for old, c := range p.Centroids {
		centroids[mapping[old]] = c
	}
	for i, l := range p.Labels {
		p.Labels[i] = mapping[l]
	}
	p.Centroids = centroids
}

func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
