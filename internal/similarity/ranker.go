package similarity

import (
	"container/heap"
	"context"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/components/embedding"
	"gonum.org/v1/gonum/floats"

	"github.com/iWorld-y/sentiment_radar/internal/logger"
	"github.com/iWorld-y/sentiment_radar/internal/model"
)

// DefaultTopK 默认选取的文章对数量
const DefaultTopK = 5

// Ranker 计算文章两两相似度并选出最相关的 K 对
type Ranker struct {
	embedder embedding.Embedder
	k        int
}

// NewRanker 创建 Ranker，k <= 0 时使用 DefaultTopK
func NewRanker(embedder embedding.Embedder, k int) *Ranker {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Ranker{embedder: embedder, k: k}
}

// K 返回选取数量
func (r *Ranker) K() int { return r.k }

// Rank 返回 min(K, C(n,2)) 个文章对，按分数降序，分数相同时按 (A, B) 升序
func (r *Ranker) Rank(ctx context.Context, texts []string) ([]model.SimilarityPair, error) {
	n := len(texts)
	if n < 2 {
		return nil, model.NewValidationError("insufficient articles: need at least 2, got %d", n)
	}

	vectors, err := r.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if err := checkVectors(vectors, n); err != nil {
		return nil, err
	}

	norms := make([]float64, n)
	for i, v := range vectors {
		norms[i] = floats.Norm(v, 2)
	}

	pairs := make([]model.SimilarityPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, model.SimilarityPair{
				A:     i,
				B:     j,
				Score: cosine(vectors[i], vectors[j], norms[i], norms[j]),
			})
		}
	}

	top := SelectTopK(pairs, r.k)
	logger.Log.Debugf("相似度排序完成: %d 篇文章, %d 个候选对, 选出 %d 对", n, len(pairs), len(top))
	return top, nil
}

func checkVectors(vectors [][]float64, n int) error {
	if len(vectors) != n {
		return &model.SchemaValidationError{
			Schema: "embedding",
			Err:    fmt.Errorf("expected %d vectors, got %d", n, len(vectors)),
		}
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return &model.SchemaValidationError{
				Schema: "embedding",
				Err:    fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim),
			}
		}
	}
	return nil
}

// cosine 零向量的相似度记为 0
func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

// Better 判断 p 是否排在 q 之前
func Better(p, q model.SimilarityPair) bool {
	if p.Score != q.Score {
		return p.Score > q.Score
	}
	if p.A != q.A {
		return p.A < q.A
	}
	return p.B < q.B
}

// SortPairs 全量排序后截断到 k，作为 SelectTopK 的参照实现
func SortPairs(pairs []model.SimilarityPair, k int) []model.SimilarityPair {
	sorted := append([]model.SimilarityPair(nil), pairs...)
	sort.Slice(sorted, func(i, j int) bool { return Better(sorted[i], sorted[j]) })
	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}

// SelectTopK 用容量为 k 的小顶堆选出前 k 个，结果与 SortPairs 一致
func SelectTopK(pairs []model.SimilarityPair, k int) []model.SimilarityPair {
	if k <= 0 {
		return []model.SimilarityPair{}
	}
	h := make(pairHeap, 0, k)
	for _, p := range pairs {
		if h.Len() < k {
			heap.Push(&h, p)
			continue
		}
		// 堆顶是当前保留集合中最差的
		if Better(p, h[0]) {
			h[0] = p
			heap.Fix(&h, 0)
		}
	}

	out := make([]model.SimilarityPair, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(model.SimilarityPair)
	}
	return out
}

// pairHeap 最差的元素在堆顶
type pairHeap []model.SimilarityPair

func (h pairHeap) Len() int           { return len(h) }
func (h pairHeap) Less(i, j int) bool { return Better(h[j], h[i]) }
func (h pairHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *pairHeap) Push(x any) { *h = append(*h, x.(model.SimilarityPair)) }

func (h *pairHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
