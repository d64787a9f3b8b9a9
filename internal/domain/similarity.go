package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	maxSimilarityScore = 100.0
	minTrainingItems   = 2
)

// ErrInsufficientTrainingData indicates too few products to train on.
var ErrInsufficientTrainingData = errors.New("insufficient training data")

// featureRange holds the observed (min, max) of a single feature across
// the training set, frozen at training time.
type featureRange struct {
	min float64
	max float64
}

// Model is an immutable trained nearest-neighbor snapshot over a catalog.
// The category set, normalization ranges and feature matrix are frozen by
// TrainModel; once built, a Model is safe for concurrent readers. There
// is no incremental update: a catalog change requires a full retrain.
type Model struct {
	categories []string
	catIndex   map[string]int
	ranges     []featureRange
	matrix     [][]float64
	items      []*Product
	neighbors  int
}

// TrainModel builds a similarity model from a catalog snapshot.
//
// Each product is encoded as a one-hot vector over the distinct category
// set observed in items (sorted for deterministic slot order), followed by
// its price as a decimal scalar. Every feature is min-max rescaled to
// [0, 1]; a feature whose observed min equals its max maps to 0.0.
//
// neighbors is the candidate pool size (k) consulted per query.
func TrainModel(items []*Product, neighbors int) (*Model, error) {
	if len(items) < minTrainingItems {
		return nil, fmt.Errorf("%w: need at least %d products, got %d",
			ErrInsufficientTrainingData, minTrainingItems, len(items))
	}

	if neighbors < 1 {
		return nil, errors.New("neighbor count must be positive")
	}

	categories := distinctCategories(items)
	catIndex := make(map[string]int, len(categories))
	for i, c := range categories {
		catIndex[c] = i
	}

	dim := len(categories) + 1

	raw := make([][]float64, len(items))
	for i, item := range items {
		raw[i] = rawFeatureVector(item, catIndex, dim)
	}

	ranges := featureRanges(raw, dim)

	matrix := make([][]float64, len(raw))
	for i, vec := range raw {
		matrix[i] = normalizeVector(vec, ranges)
	}

	backing := make([]*Product, len(items))
	copy(backing, items)

	return &Model{
		categories: categories,
		catIndex:   catIndex,
		ranges:     ranges,
		matrix:     matrix,
		items:      backing,
		neighbors:  neighbors,
	}, nil
}

// Size returns the number of indexed products.
func (m *Model) Size() int {
	return len(m.items)
}

// Neighbors returns the configured candidate pool size.
func (m *Model) Neighbors() int {
	return m.neighbors
}

// Recommend returns up to limit products most similar to query, ordered
// by ascending distance with ties broken by training-set insertion order.
// The query itself is excluded by identity. A query category unseen at
// training time contributes an all-zero one-hot block and is not an error.
//
// At most Neighbors() candidates are consulted, so fewer than limit
// results may come back; the caller is responsible for topping up.
func (m *Model) Recommend(query *Product, limit int) []Recommendation {
	if query == nil || limit < 1 {
		return nil
	}

	queryVec := normalizeVector(rawFeatureVector(query, m.catIndex, len(m.ranges)), m.ranges)

	type neighbor struct {
		pos      int
		distance float64
	}

	neighbors := make([]neighbor, len(m.matrix))
	for i, vec := range m.matrix {
		neighbors[i] = neighbor{pos: i, distance: euclideanDistance(queryVec, vec)}
	}

	// Stable ordering: distance ascending, insertion order as tie-break.
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].distance < neighbors[b].distance
	})

	if len(neighbors) > m.neighbors {
		neighbors = neighbors[:m.neighbors]
	}

	results := make([]Recommendation, 0, limit)
	for _, n := range neighbors {
		if len(results) == limit {
			break
		}

		candidate := m.items[n.pos]
		if candidate.ID == query.ID {
			continue
		}

		results = append(results, Recommendation{
			ProductID:   candidate.ID,
			Name:        candidate.Name,
			Category:    candidate.Category,
			Price:       candidate.Price.String(),
			Score:       similarityScore(n.distance),
			Rank:        len(results) + 1,
			Explanation: explainSimilarity(query, candidate),
			Source:      SourceSimilarity,
		})
	}

	return results
}

// distinctCategories returns the sorted set of category strings in items.
func distinctCategories(items []*Product) []string {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.Category] = struct{}{}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return categories
}

// rawFeatureVector encodes a product as one-hot category slots followed by
// the price in decimal major units. Categories missing from catIndex leave
// the one-hot block all zero.
func rawFeatureVector(p *Product, catIndex map[string]int, dim int) []float64 {
	vec := make([]float64, dim)
	if slot, ok := catIndex[p.Category]; ok {
		vec[slot] = 1
	}
	vec[dim-1] = p.Price.Float64()

	return vec
}

// featureRanges computes the per-feature (min, max) across all vectors.
func featureRanges(vectors [][]float64, dim int) []featureRange {
	ranges := make([]featureRange, dim)
	for f := range ranges {
		ranges[f] = featureRange{min: math.Inf(1), max: math.Inf(-1)}
	}

	for _, vec := range vectors {
		for f, v := range vec {
			if v < ranges[f].min {
				ranges[f].min = v
			}
			if v > ranges[f].max {
				ranges[f].max = v
			}
		}
	}

	return ranges
}

// normalizeVector min-max rescales a vector using frozen training ranges.
// A degenerate feature (max == min) maps to 0.0 rather than dividing by zero.
func normalizeVector(vec []float64, ranges []featureRange) []float64 {
	normalized := make([]float64, len(vec))
	for f, v := range vec {
		spread := ranges[f].max - ranges[f].min
		if spread == 0 {
			normalized[f] = 0
			continue
		}
		normalized[f] = (v - ranges[f].min) / spread
	}

	return normalized
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}

// similarityScore maps a distance to a bounded score:
// clamp(100 * 1/(1+distance), 0, 100).
func similarityScore(distance float64) float64 {
	score := maxSimilarityScore / (1 + distance)
	if score < 0 {
		return 0
	}
	if score > maxSimilarityScore {
		return maxSimilarityScore
	}

	return score
}

func explainSimilarity(query, candidate *Product) string {
	if candidate.Category == query.Category {
		return fmt.Sprintf("Shares the %s category with %s and has a comparable price",
			candidate.Category, query.Name)
	}

	return fmt.Sprintf("Similar overall profile to %s", query.Name)
}
