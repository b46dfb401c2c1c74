package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"course-assistant/internal/course"
)

const (
	// ChunkerVersion identifies the chunking rules. Bump it when they change.
	ChunkerVersion = "v1.0"
	// TokensPerRune approximates tokens from characters (4 chars per token).
	TokensPerRune = 4.0
)

// ChunkTokenStats summarizes estimated token counts of the chunks written in one run.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func estimateTokens(text string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

func chunkTokenStats(chunks []course.Chunk) ChunkTokenStats {
	counts := make([]int, 0, len(chunks))
	for _, ch := range chunks {
		counts = append(counts, estimateTokens(ch.Text))
	}
	return computeTokenStats(counts)
}

// computeTokenStats computes min, max, mean and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}

// IndexVersion fingerprints the chunking rules, chunk parameters and embedding model.
// Collections built under different versions should not be mixed.
func IndexVersion(chunkSize, chunkOverlap int, embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|chunkSize=%d|chunkOverlap=%d", ChunkerVersion, embeddingModel, chunkSize, chunkOverlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
