package core

import (
	"context"
	"math"
	"sort"

	"github.com/hozonlabs/hozon-go/pkg/router"
)

// defaultSearchLimit caps search results when WithLimit is not given.
const defaultSearchLimit = 5

// Route classifies a query without running a search. It is a thin
// passthrough to the semantic router, exposed for callers that want to
// log or inspect routing decisions.
func (c *Client) Route(query string) router.Route {
	return router.Classify(query)
}

// Search routes the query to the private collection, the public
// collection, or both, and returns the merged hits ordered by ascending
// cosine distance.
//
// The query is embedded once and reused for every partition. Each hit is
// tagged with the collection it came from. Hits without a usable distance
// sort last. The merged list is truncated to the configured limit.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) ([]*SearchResult, error) {
	if query == "" {
		return nil, NewMemoryError("Search", ErrInvalidInput)
	}

	o := applySearchOptions(opts)

	embedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewMemoryError("Search", err)
	}

	route := router.Classify(query)

	var collections []string
	if route == router.RoutePrivate || route == router.RouteBoth {
		collections = append(collections, CollectionPrivate)
	}
	if route == router.RoutePublic || route == router.RouteBoth {
		collections = append(collections, CollectionPublic)
	}

	var results []*SearchResult
	for _, collection := range collections {
		docs, err := c.store.Query(ctx, collection, embedding, o.limit, nil)
		if err != nil {
			return nil, NewMemoryError("Search", err)
		}
		for _, doc := range docs {
			results = append(results, &SearchResult{
				Content:  doc.Content,
				Metadata: doc.Metadata,
				Source:   collection,
				Distance: doc.Distance,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return sortDistance(results[i]) < sortDistance(results[j])
	})

	if len(results) > o.limit {
		results = results[:o.limit]
	}
	return results, nil
}

// sortDistance treats NaN distances as worst possible so entries without
// a usable score sort last.
func sortDistance(r *SearchResult) float64 {
	if math.IsNaN(r.Distance) {
		return math.Inf(1)
	}
	return r.Distance
}
