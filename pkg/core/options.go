package core

import (
	"github.com/hozonlabs/hozon-go/pkg/embedder"
	"github.com/hozonlabs/hozon-go/pkg/storage"
)

// addOptions holds optional parameters for add operations.
type addOptions struct {
	importance *float64
	topic      string
	sourceURL  string
}

// AddOption configures an add operation.
type AddOption func(*addOptions)

// WithImportance supplies an explicit importance score, bypassing the
// LLM judge. The score is clamped to [0, 10].
func WithImportance(score float64) AddOption {
	return func(o *addOptions) {
		o.importance = &score
	}
}

// WithTopic sets the topic label on the stored entry.
func WithTopic(topic string) AddOption {
	return func(o *addOptions) {
		o.topic = topic
	}
}

// WithSourceURL records where the content came from. Content from
// sensitive sources (banking, authentication, mail, medical, private
// networks) is rejected.
func WithSourceURL(url string) AddOption {
	return func(o *addOptions) {
		o.sourceURL = url
	}
}

func applyAddOptions(opts []AddOption) *addOptions {
	o := &addOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// searchOptions holds optional parameters for Search.
type searchOptions struct {
	limit int
}

// SearchOption configures a Search operation.
type SearchOption func(*searchOptions)

// WithLimit caps the number of results returned. The default is 5.
func WithLimit(n int) SearchOption {
	return func(o *searchOptions) {
		if n > 0 {
			o.limit = n
		}
	}
}

func applySearchOptions(opts []SearchOption) *searchOptions {
	o := &searchOptions{limit: defaultSearchLimit}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ClientOption configures a Client at construction time. Options that
// supply a component override the provider the config would otherwise
// select, which is how tests inject fakes.
type ClientOption func(*Client)

// WithStore supplies a pre-built vector store, overriding the configured
// provider.
func WithStore(store storage.VectorStore) ClientOption {
	return func(c *Client) {
		c.store = store
	}
}

// WithEmbedder supplies a pre-built embedding provider, overriding the
// configured provider.
func WithEmbedder(provider embedder.Provider) ClientOption {
	return func(c *Client) {
		c.embedder = provider
	}
}

// WithSummarizer supplies a summarizer, overriding the LLM-backed default.
func WithSummarizer(s Summarizer) ClientOption {
	return func(c *Client) {
		c.summarizer = s
	}
}

// WithJudge supplies an importance judge, overriding the LLM-backed
// default.
func WithJudge(j ImportanceJudge) ClientOption {
	return func(c *Client) {
		c.judge = j
	}
}
