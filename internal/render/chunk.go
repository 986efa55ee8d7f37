package render

import (
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/session"
)

// Chunk distributes items across sub-feeds in result order. Sub-feed i takes
// at most columns(i)*2 items and the last sub-feed takes whatever remains.
// A single sub-feed receives every item.
func Chunk(items []result.Item, configs []session.SubFeedConfig) [][]result.Item {
	n := max(1, len(configs))
	out := make([][]result.Item, n)
	if n == 1 {
		out[0] = items
		return out
	}

	rest := items
	for i := range n {
		if i == n-1 {
			out[i] = rest
			break
		}
		take := min(configs[i].ChunkSize(), len(rest))
		out[i] = rest[:take]
		rest = rest[take:]
	}
	return out
}
