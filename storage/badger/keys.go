package badger

import (
	"encoding/binary"

	"github.com/pellego/ragline/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "doc"
	jobPrefix      = "job"
	chunkJobPrefix = "cjob"
	chunkPrefix    = "chk"
	blobPrefix     = "blob"
	documentIDSeq  = "docseq"
	jobIDSeq       = "jobseq"
	chunkJobIDSeq  = "cjobseq"
	chunkIDSeq     = "chkseq"
)

// makeOwnerPrefix builds the key prefix for one owner's records of a type.
// Format: prefix:len(owner):owner:
//
// The owner segment is length-prefixed so a prefix scan for owner "a" can
// never bleed into records of owner "a:b".
func makeOwnerPrefix(prefix, owner string) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(owner)))

	buf := make([]byte, 0, len(prefix)+1+n+len(owner)+1)
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	buf = append(buf, lenBuf[:n]...)
	buf = append(buf, owner...)
	buf = append(buf, ':')
	return buf
}

// makeOwnerKey builds a full record key from an owner prefix and one or more
// numeric components. Components are written in BigEndian order so
// lexicographic iteration yields numeric order.
func makeOwnerKey(prefix, owner string, components ...uint64) []byte {
	buf := makeOwnerPrefix(prefix, owner)
	for _, c := range components {
		buf = binary.BigEndian.AppendUint64(buf, c)
	}
	return buf
}

// makeDocumentKey generates a key for a document by owner and ID.
func makeDocumentKey(owner string, id core.ID) []byte {
	return makeOwnerKey(documentPrefix, owner, uint64(id))
}

// makeJobKey generates a key for an ingestion job by owner and ID.
func makeJobKey(owner string, id core.ID) []byte {
	return makeOwnerKey(jobPrefix, owner, uint64(id))
}

// makeChunkJobKey generates a composite key for a chunk job.
// Format: prefix:owner:jobID:index
func makeChunkJobKey(owner string, jobID core.ID, index int) []byte {
	return makeOwnerKey(chunkJobPrefix, owner, uint64(jobID), uint64(index))
}

// makeChunkJobPrefix generates the iteration prefix for one job's chunk jobs.
func makeChunkJobPrefix(owner string, jobID core.ID) []byte {
	return makeOwnerKey(chunkJobPrefix, owner, uint64(jobID))
}

// makeChunkKey generates a composite key for a persisted chunk.
// Format: prefix:owner:documentID:index
func makeChunkKey(owner string, documentID core.ID, index int) []byte {
	return makeOwnerKey(chunkPrefix, owner, uint64(documentID), uint64(index))
}

// makeChunkDocumentPrefix generates the iteration prefix for one document's chunks.
func makeChunkDocumentPrefix(owner string, documentID core.ID) []byte {
	return makeOwnerKey(chunkPrefix, owner, uint64(documentID))
}

// makeChunkOwnerPrefix generates the iteration prefix for all of an owner's chunks.
func makeChunkOwnerPrefix(owner string) []byte {
	return makeOwnerPrefix(chunkPrefix, owner)
}

// makeBlobKey generates a key for blob bytes by handle.
func makeBlobKey(handle core.BlobHandle) []byte {
	buf := make([]byte, 0, len(blobPrefix)+1+len(handle))
	buf = append(buf, blobPrefix...)
	buf = append(buf, ':')
	buf = append(buf, handle...)
	return buf
}
