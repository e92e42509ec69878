package graph

import (
	"math"

	"github.com/phobologic/archlens/internal/model"
)

// pageRank returns a rank per component. Each edge contributes in proportion
// to its reference count; dangling components spread their rank uniformly.
func pageRank(n int, edges []model.Edge, alpha float64, maxIter int, tol float64) []float64 {
	rank := make([]float64, n)
	if n == 0 {
		return rank
	}

	initial := 1.0 / float64(n)
	for i := range rank {
		rank[i] = initial
	}
	if len(edges) == 0 {
		return rank
	}

	outWeight := make([]float64, n)
	for _, e := range edges {
		outWeight[e.From] += float64(e.Count)
	}

	teleport := (1.0 - alpha) / float64(n)
	next := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for i := range rank {
			if outWeight[i] == 0 {
				danglingSum += rank[i]
			}
		}
		base := teleport + alpha*danglingSum/float64(n)
		for i := range next {
			next[i] = base
		}

		for _, e := range edges {
			next[e.To] += alpha * rank[e.From] * float64(e.Count) / outWeight[e.From]
		}

		var diff float64
		for i := range rank {
			diff += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank

		if diff < tol {
			break
		}
	}

	return rank
}
