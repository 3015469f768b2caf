package badger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_ColonInDocumentIDDoesNotAlias(t *testing.T) {
	t.Run("chunk keys", func(t *testing.T) {
		assert.False(t, bytes.HasPrefix(makeChunkKey("a:b", 0), makeChunkPrefix("a")))
		assert.False(t, bytes.HasPrefix(makeChunkKey("a", 0), makeChunkPrefix("a:b")))
	})

	t.Run("query cache keys", func(t *testing.T) {
		assert.False(t, bytes.HasPrefix(QueryCacheKey("a:b", 7), QueryCachePrefix("a")))
	})

	t.Run("index cache keys", func(t *testing.T) {
		assert.NotEqual(t, IndexCacheKey("a"), IndexCacheKey("a:b"))
	})
}

func TestMakeChunkKey_IteratesInChunkOrder(t *testing.T) {
	prev := makeChunkKey("doc-1", 0)
	for index := 1; index < 300; index++ {
		key := makeChunkKey("doc-1", index)
		assert.Negative(t, bytes.Compare(prev, key))
		prev = key
	}
}
