package features

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// KMeans is a plain Lloyd's-iteration clusterer used as the default
// Clusterer implementation for user segmentation.
type KMeans struct {
	K       int
	MaxIter int
	rng     *rand.Rand
	centers [][]float64
}

// NewKMeans creates a clusterer with k clusters over the given random
// source.
func NewKMeans(k int, rng *rand.Rand) *KMeans {
	return &KMeans{K: k, MaxIter: 100, rng: rng}
}

// Fit clusters x and returns the per-row cluster assignment.
func (m *KMeans) Fit(x [][]float64) ([]int, error) {
	if len(x) == 0 {
		return nil, ErrEmptyMatrix
	}

	k := m.K
	if k > len(x) {
		k = len(x)
	}

	// Initialize centers from distinct random rows.
	perm := m.rng.Perm(len(x))
	m.centers = make([][]float64, k)
	for i := 0; i < k; i++ {
		m.centers[i] = append([]float64(nil), x[perm[i]]...)
	}

	labels := make([]int, len(x))
	for iter := 0; iter < m.MaxIter; iter++ {
		changed := false
		for i, row := range x {
			best := m.nearest(row)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}

		m.recenter(x, labels, k)
		if !changed && iter > 0 {
			break
		}
	}
	return labels, nil
}

func (m *KMeans) nearest(row []float64) int {
	best := 0
	bestDist := floats.Distance(row, m.centers[0], 2)
	for c := 1; c < len(m.centers); c++ {
		if d := floats.Distance(row, m.centers[c], 2); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func (m *KMeans) recenter(x [][]float64, labels []int, k int) {
	dims := len(x[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, row := range x {
		floats.Add(sums[labels[i]], row)
		counts[labels[i]]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue // keep the previous center for empty clusters
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		m.centers[c] = sums[c]
	}
}
