package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trendlens/internal/shared/testutil"
)

// MockClusterer is a mock implementation of Clusterer
type MockClusterer struct {
	mock.Mock
}

func (m *MockClusterer) Cluster(ctx context.Context, points [][]float64, k int) (*Partition, error) {
	args := m.Called(ctx, points, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Partition), args.Error(1)
}

func TestClustersPets(t *testing.T) {
	table := loadTable(t, testutil.PetsCSV)

	result, err := Clusters(context.Background(), table, NewViewRequest("", 2), DefaultKMeans())
	require.NoError(t, err)

	assert.Equal(t, 2, result.K)
	assert.Equal(t, []string{"Cats", "Dogs"}, result.Columns)
	require.Len(t, result.Labels, 3)

	ids := map[int]bool{}
	for _, label := range result.Labels {
		assert.GreaterOrEqual(t, label, 0)
		assert.Less(t, label, 2)
		ids[label] = true
	}
	assert.Len(t, ids, 2)

	total := 0
	for _, c := range result.Clusters {
		total += c.Size
		assert.Len(t, c.Centroid, 2)
		assert.Len(t, c.Means, 2)
		assert.NotEmpty(t, c.TopTopic)
	}
	assert.Equal(t, 3, total)
}

func TestClustersIsDeterministic(t *testing.T) {
	table := loadTable(t, testutil.MonthlyCSV(40, "A", "B", "C"))
	req := NewViewRequest("", 4)

	first, err := Clusters(context.Background(), table, req, DefaultKMeans())
	require.NoError(t, err)
	second, err := Clusters(context.Background(), table, req, DefaultKMeans())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClustersErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		k       int
		wantErr error
	}{
		{name: "k is zero", input: testutil.PetsCSV, k: 0, wantErr: ErrInvalidK},
		{name: "k is negative", input: testutil.PetsCSV, k: -1, wantErr: ErrInvalidK},
		{name: "k exceeds rows", input: testutil.PetsCSV, k: 4, wantErr: ErrInvalidK},
		{name: "no numeric columns", input: "Month,Note\n2020-01,a\n2020-02,b\n", k: 1, wantErr: ErrNoNumericColumns},
		{name: "only a cluster column", input: "Month,Cluster\n2020-01,0\n2020-02,1\n", k: 1, wantErr: ErrNoNumericColumns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clusterer := new(MockClusterer)
			_, err := Clusters(context.Background(), loadTable(t, tt.input), ViewRequest{K: tt.k}, clusterer)
			assert.ErrorIs(t, err, tt.wantErr)
			clusterer.AssertNotCalled(t, "Cluster", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestClustersStandardizesAndFillsMissing(t *testing.T) {
	table := loadTable(t, "Month,A,B,Flat,Cluster\n2020-01,1,,7,9\n2020-02,3,2,7,9\n")
	want := [][]float64{{-1, -1, 0}, {1, 1, 0}}

	clusterer := new(MockClusterer)
	clusterer.On("Cluster", mock.Anything, want, 2).Return(&Partition{
		Labels:    []int{0, 1},
		Centroids: [][]float64{{-1, -1, 0}, {1, 1, 0}},
	}, nil)

	result, err := Clusters(context.Background(), table, ViewRequest{K: 2}, clusterer)
	require.NoError(t, err)
	clusterer.AssertExpectations(t)

	assert.Equal(t, []string{"A", "B", "Flat"}, result.Columns)
	assert.Equal(t, []int{0, 1}, result.Labels)
	assert.Equal(t, ClusterSummary{
		ID: 0, Size: 1,
		Centroid: []float64{-1, -1, 0},
		Means:    []float64{1, 0, 7},
		TopTopic: "Flat",
	}, result.Clusters[0])
	assert.Equal(t, []float64{3, 2, 7}, result.Clusters[1].Means)
}

func TestClustersRejectsMalformedPartition(t *testing.T) {
	table := loadTable(t, testutil.PetsCSV)

	tests := []struct {
		name string
		part *Partition
	}{
		{name: "too few labels", part: &Partition{Labels: []int{0}, Centroids: [][]float64{{0, 0}, {1, 1}}}},
		{name: "label out of range", part: &Partition{Labels: []int{0, 1, 2}, Centroids: [][]float64{{0, 0}, {1, 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clusterer := new(MockClusterer)
			clusterer.On("Cluster", mock.Anything, mock.Anything, 2).Return(tt.part, nil)

			_, err := Clusters(context.Background(), table, ViewRequest{K: 2}, clusterer)
			assert.Error(t, err)
		})
	}
}

func TestClustersPropagatesClustererError(t *testing.T) {
	boom := errors.New("boom")
	clusterer := new(MockClusterer)
	clusterer.On("Cluster", mock.Anything, mock.Anything, 2).Return(nil, boom)

	_, err := Clusters(context.Background(), loadTable(t, testutil.PetsCSV), ViewRequest{K: 2}, clusterer)
	assert.ErrorIs(t, err, boom)
}

func TestStandardize(t *testing.T) {
	got, err := standardize([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, -1.224744871, got[0], 1e-9)
	assert.InDelta(t, 0, got[1], 1e-12)
	assert.InDelta(t, 1.224744871, got[2], 1e-9)

	got, err = standardize([]float64{0.1, 0.1, 0.1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, got)
}
