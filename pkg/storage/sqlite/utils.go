package sqlite

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/hozonlabs/hozon-go/pkg/storage"
)

// collectionNameRe limits collection names to identifier characters since
// they are interpolated into SQL as table names.
var collectionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateCollectionName rejects collection names that are not valid
// identifiers.
func validateCollectionName(name string) error {
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("invalid collection name: %q", name)
	}
	return nil
}

// matchesFilter reports whether the metadata map contains every key/value
// pair of the filter. A nil or empty filter matches everything.
func matchesFilter(metadata, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankByDistance sorts documents by ascending distance (id as tie-break for
// stable ordering) and truncates to k. A non-positive k means no limit.
func rankByDistance(docs []*storage.Document, k int) []*storage.Document {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Distance != docs[j].Distance {
			return docs[i].Distance < docs[j].Distance
		}
		return docs[i].ID < docs[j].ID
	})

	if k > 0 && len(docs) > k {
		return docs[:k]
	}
	return docs
}
