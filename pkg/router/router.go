// Package router classifies search queries into the private or public
// memory collection, or both.
//
// Classification is keyword based: two regexp tables score the query and the
// higher score wins. A tie, including two zero scores, routes to both
// collections so nothing is silently missed.
package router

import "regexp"

// Route identifies which collection group a query targets.
type Route string

const (
	RoutePrivate Route = "private"
	RoutePublic  Route = "public"
	RouteBoth    Route = "both"
)

// privatePatterns match first-person references, personal records and
// personal opinions.
var privatePatterns = compileAll([]string{
	`私(が|は|の|を|に|で|も|って|的|自身)`,
	`自分(が|は|の|を|に|で|も|って|的|自身)`,
	`僕(が|は|の|を|に|で|も|って)`,
	`俺(が|は|の|を|に|で|も|って)`,
	`(昨日|今日|先週|先月|今週|最近|去年)(の|は|に|も)`,
	`日記`,
	`メモ`,
	`ツイート`,
	`つぶやい`,
	`書いた(こと|もの)`,
	`覚えてる`,
	`いつも(の|は|思って)`,
	`(好き|嫌い)な(もの|こと|ん)`,
	`(思う|感じ|考え)(た|てる|てた|ている)`,
	`個人的(に|な)`,
})

// publicPatterns match published knowledge and third-party statements.
var publicPatterns = compileAll([]string{
	`著書`,
	`論文`,
	`研究`,
	`(公開|発表)(した|の)`,
	`インタビュー`,
	`一般的(に|な)`,
	`世間(で|では|の)`,
	`ニュース`,
	`記事`,
	`資料`,
	`(の|が)(言って|発言|主張|提唱)`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

func score(patterns []*regexp.Regexp, query string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(query) {
			n++
		}
	}
	return n
}

// Scores returns the private and public keyword scores for query. Exposed
// for callers that want to log or inspect the classification.
func Scores(query string) (private, public int) {
	return score(privatePatterns, query), score(publicPatterns, query)
}

// Classify routes query to the private collection, the public collection, or
// both. Ties, including queries matching no keyword at all, route to both.
func Classify(query string) Route {
	private, public := Scores(query)
	switch {
	case private > public:
		return RoutePrivate
	case public > private:
		return RoutePublic
	default:
		return RouteBoth
	}
}
