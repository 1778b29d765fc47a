package vecops

import "sort"

// Match is a candidate position with its similarity to a query
type Match struct {
	Index      int
	Similarity float32
}

// TopK scores every candidate against query by cosine similarity and returns
// the k best in descending order. Ties keep candidate order. k <= 0 or
// k > len(candidates) returns every candidate.
func TopK(query []float32, candidates [][]float32, k int) []Match {
	if len(candidates) == 0 {
		return nil
	}

	sims := make([]float32, len(candidates))
	BatchCosineSimilarity(query, candidates, sims)

	matches := make([]Match, len(candidates))
	for i, s := range sims {
		matches[i] = Match{Index: i, Similarity: s}
	}

	if k <= 0 || k >= len(matches) {
		sortMatches(matches)
		return matches
	}
	if k <= 5 {
		return selectTopK(matches, k)
	}
	return heapTopK(matches, k)
}

// better orders by similarity, then by lower index
func better(a, b Match) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.Index < b.Index
}

func sortMatches(m []Match) {
	if len(m) <= 16 {
		insertionSort(m)
		return
	}
	sort.Slice(m, func(i, j int) bool { return better(m[i], m[j]) })
}

func insertionSort(m []Match) {
	for i := 1; i < len(m); i++ {
		key := m[i]
		j := i - 1
		for j >= 0 && better(key, m[j]) {
			m[j+1] = m[j]
			j--
		}
		m[j+1] = key
	}
}

// selectTopK uses simple selection for very small k
func selectTopK(m []Match, k int) []Match {
	top := make([]Match, 0, k)
	for i := 0; i < k; i++ {
		best := i
		for j := i + 1; j < len(m); j++ {
			if better(m[j], m[best]) {
				best = j
			}
		}
		m[i], m[best] = m[best], m[i]
		top = append(top, m[i])
	}
	return top
}

// heapTopK keeps a min-heap (worst at the root) of size k
func heapTopK(m []Match, k int) []Match {
	heap := make([]Match, 0, k)
	for _, r := range m {
		if len(heap) < k {
			heap = append(heap, r)
			siftUp(heap, len(heap)-1)
		} else if better(r, heap[0]) {
			heap[0] = r
			siftDown(heap, 0)
		}
	}
	sortMatches(heap)
	return heap
}

func siftUp(h []Match, i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !better(h[parent], h[i]) {
			break
		}
		h[parent], h[i] = h[i], h[parent]
		i = parent
	}
}

func siftDown(h []Match, i int) {
	n := len(h)
	for {
		worst := i
		left, right := 2*i+1, 2*i+2
		if left < n && better(h[worst], h[left]) {
			worst = left
		}
		if right < n && better(h[worst], h[right]) {
			worst = right
		}
		if worst == i {
			return
		}
		h[i], h[worst] = h[worst], h[i]
		i = worst
	}
}
