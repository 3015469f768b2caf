package badger

import (
	"encoding/binary"
	"strconv"
)

// Key prefixes for different data types
const (
	chunkPrefix      = "chunk"
	indexCachePrefix = "idxcache"
	queryCachePrefix = "qcache"
)

// documentKeyPrefix builds "<kind>:<len><documentID>:". The document id is
// length-prefixed so an id containing ':' can never alias another document's
// keyspace: the prefix for "a" must not be a key prefix for "a:b".
func documentKeyPrefix(kind, documentID string) []byte {
	buf := make([]byte, 0, len(kind)+1+4+len(documentID)+1)
	buf = append(buf, kind...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(documentID)))
	buf = append(buf, documentID...)
	return append(buf, ':')
}

// makeChunkKey generates a key for a chunk by document id and position.
// The position is BigEndian so lexicographic iteration yields chunk order.
func makeChunkKey(documentID string, index int) []byte {
	return binary.BigEndian.AppendUint64(makeChunkPrefix(documentID), uint64(index))
}

// makeChunkPrefix generates the key prefix covering all chunks of a document.
func makeChunkPrefix(documentID string) []byte {
	return documentKeyPrefix(chunkPrefix, documentID)
}

// IndexCacheKey generates the key for a document's cached index parts.
func IndexCacheKey(documentID string) []byte {
	return documentKeyPrefix(indexCachePrefix, documentID)
}

// QueryCacheKey generates the key for a cached query result.
// queryHash is a content hash of the normalized question.
func QueryCacheKey(documentID string, queryHash uint64) []byte {
	return strconv.AppendUint(QueryCachePrefix(documentID), queryHash, 10)
}

// QueryCachePrefix generates the key prefix covering all cached query
// results of a document.
func QueryCachePrefix(documentID string) []byte {
	return documentKeyPrefix(queryCachePrefix, documentID)
}
