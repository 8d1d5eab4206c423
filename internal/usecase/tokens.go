package usecase

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// encoder lazily loads the cl100k_base encoding. Loading can fail (the
// vocabulary is fetched on first use); callers fall back to a rough
// bytes-per-token estimate in that case.
func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		if e, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			enc = e
		}
	})
	return enc
}

func countTokens(s string) int {
	if e := encoder(); e != nil {
		return len(e.Encode(s, nil, nil))
	}
	return len(s) / 4
}

// truncateToTokens hard-caps s at budget tokens. Used as the last resort
// when condensing the knowledge base fails.
func truncateToTokens(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	if e := encoder(); e != nil {
		toks := e.Encode(s, nil, nil)
		if len(toks) <= budget {
			return s
		}
		return e.Decode(toks[:budget])
	}
	max := budget * 4
	if len(s) <= max {
		return s
	}
	return s[:max]
}
