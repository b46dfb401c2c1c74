// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashDimensions is the vector size produced by HashEmbedder.
const HashDimensions = 1024

// HashEmbedder is a deterministic, offline embedder. Each word contributes its
// characters and its boundary-marked character bigrams, hashed into a fixed
// number of buckets. Strings a few edits apart stay close in cosine space.
type HashEmbedder struct {
	Calls int
}

// Embed returns one unit-length vector per text.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.Calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = HashVector(t)
	}
	return out, nil
}

// HashVector embeds a single text.
func HashVector(text string) []float32 {
	vec := make([]float64, HashDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		runes := []rune(w)
		for _, r := range runes {
			vec[bucket(string(r))]++
		}
		marked := append(append([]rune{'^'}, runes...), '$')
		for j := 0; j+1 < len(marked); j++ {
			vec[bucket(string(marked[j:j+2]))]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, HashDimensions)
	if norm == 0 {
		out[0] = 1
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func bucket(feature string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feature))
	return int(h.Sum32() % HashDimensions)
}

// Cosine returns the cosine similarity of two equal-length vectors.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
