// Copyright 2026 Pellego Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/varint"
	"github.com/pellego/ragline/core"
)

// Hand-written MUS serializers for the persisted record types. Field order is
// the wire format; never reorder fields without a storage migration.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	size := sizeUint64(uint64(doc.Id)) +
		sizeString(doc.Owner) +
		sizeString(doc.Filename) +
		sizeString(doc.MimeType) +
		sizeUint64(uint64(doc.ByteSize)) +
		sizeUint64(uint64(doc.Status)) +
		sizeString(doc.Error) +
		sizeString(string(doc.Blob)) +
		sizeTime(doc.CreatedAt) +
		sizeTime(doc.UpdatedAt)

	buf := make([]byte, size)
	n := marshalUint64(uint64(doc.Id), buf)
	n += marshalString(doc.Owner, buf[n:])
	n += marshalString(doc.Filename, buf[n:])
	n += marshalString(doc.MimeType, buf[n:])
	n += marshalUint64(uint64(doc.ByteSize), buf[n:])
	n += marshalUint64(uint64(doc.Status), buf[n:])
	n += marshalString(doc.Error, buf[n:])
	n += marshalString(string(doc.Blob), buf[n:])
	n += marshalTime(doc.CreatedAt, buf[n:])
	marshalTime(doc.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	r := reader{data: data}
	doc := &core.Document{
		Id:       core.ID(r.uint64()),
		Owner:    r.string(),
		Filename: r.string(),
		MimeType: r.string(),
		ByteSize: int64(r.uint64()),
	}
	doc.Status = core.DocumentStatus(r.uint64())
	doc.Error = r.string()
	doc.Blob = core.BlobHandle(r.string())
	doc.CreatedAt = r.time()
	doc.UpdatedAt = r.time()
	if r.err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, r.err)
	}
	return doc, nil
}

// MarshalJob serializes an IngestionJob to bytes.
func MarshalJob(job *core.IngestionJob) []byte {
	size := sizeUint64(uint64(job.Id)) +
		sizeUint64(uint64(job.DocumentId)) +
		sizeString(job.Owner) +
		sizeString(string(job.Blob)) +
		sizeString(job.Filename) +
		sizeString(job.MimeType) +
		sizeUint64(uint64(job.Status)) +
		sizeUint64(uint64(job.TotalChunks)) +
		sizeUint64(uint64(job.ProcessedChunks)) +
		sizeString(string(job.ErrorCode)) +
		sizeString(job.LastError) +
		sizeTime(job.CreatedAt) +
		sizeTime(job.UpdatedAt)

	buf := make([]byte, size)
	n := marshalUint64(uint64(job.Id), buf)
	n += marshalUint64(uint64(job.DocumentId), buf[n:])
	n += marshalString(job.Owner, buf[n:])
	n += marshalString(string(job.Blob), buf[n:])
	n += marshalString(job.Filename, buf[n:])
	n += marshalString(job.MimeType, buf[n:])
	n += marshalUint64(uint64(job.Status), buf[n:])
	n += marshalUint64(uint64(job.TotalChunks), buf[n:])
	n += marshalUint64(uint64(job.ProcessedChunks), buf[n:])
	n += marshalString(string(job.ErrorCode), buf[n:])
	n += marshalString(job.LastError, buf[n:])
	n += marshalTime(job.CreatedAt, buf[n:])
	marshalTime(job.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalJob deserializes an IngestionJob from bytes.
func UnmarshalJob(data []byte) (*core.IngestionJob, error) {
	r := reader{data: data}
	job := &core.IngestionJob{
		Id:         core.ID(r.uint64()),
		DocumentId: core.ID(r.uint64()),
		Owner:      r.string(),
	}
	job.Blob = core.BlobHandle(r.string())
	job.Filename = r.string()
	job.MimeType = r.string()
	job.Status = core.JobStatus(r.uint64())
	job.TotalChunks = int(r.uint64())
	job.ProcessedChunks = int(r.uint64())
	job.ErrorCode = core.ErrorCode(r.string())
	job.LastError = r.string()
	job.CreatedAt = r.time()
	job.UpdatedAt = r.time()
	if r.err != nil {
		return nil, fmt.Errorf("%w: ingestion job: %w", ErrSerializationFailed, r.err)
	}
	return job, nil
}

// MarshalChunkJob serializes a ChunkJob to bytes.
func MarshalChunkJob(cj *core.ChunkJob) []byte {
	size := sizeUint64(uint64(cj.Id)) +
		sizeUint64(uint64(cj.JobId)) +
		sizeUint64(uint64(cj.DocumentId)) +
		sizeUint64(uint64(cj.Index)) +
		sizeString(cj.Content) +
		sizeUint64(uint64(cj.Status)) +
		sizeString(cj.Error)

	buf := make([]byte, size)
	n := marshalUint64(uint64(cj.Id), buf)
	n += marshalUint64(uint64(cj.JobId), buf[n:])
	n += marshalUint64(uint64(cj.DocumentId), buf[n:])
	n += marshalUint64(uint64(cj.Index), buf[n:])
	n += marshalString(cj.Content, buf[n:])
	n += marshalUint64(uint64(cj.Status), buf[n:])
	marshalString(cj.Error, buf[n:])
	return buf
}

// UnmarshalChunkJob deserializes a ChunkJob from bytes.
func UnmarshalChunkJob(data []byte) (*core.ChunkJob, error) {
	r := reader{data: data}
	cj := &core.ChunkJob{
		Id:         core.ID(r.uint64()),
		JobId:      core.ID(r.uint64()),
		DocumentId: core.ID(r.uint64()),
		Index:      int(r.uint64()),
		Content:    r.string(),
	}
	cj.Status = core.ChunkJobStatus(r.uint64())
	cj.Error = r.string()
	if r.err != nil {
		return nil, fmt.Errorf("%w: chunk job: %w", ErrSerializationFailed, r.err)
	}
	return cj, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	size := sizeUint64(uint64(chunk.Id)) +
		sizeString(chunk.Owner) +
		sizeUint64(uint64(chunk.DocumentId)) +
		sizeUint64(uint64(chunk.Index)) +
		sizeString(chunk.Content) +
		sizeVector(chunk.Vector) +
		sizeString(chunk.Metadata.Model) +
		sizeUint64(uint64(chunk.Metadata.Dimension)) +
		sizeString(chunk.Metadata.Filename) +
		sizeString(chunk.Metadata.MimeType) +
		sizeTime(chunk.CreatedAt)

	buf := make([]byte, size)
	n := marshalUint64(uint64(chunk.Id), buf)
	n += marshalString(chunk.Owner, buf[n:])
	n += marshalUint64(uint64(chunk.DocumentId), buf[n:])
	n += marshalUint64(uint64(chunk.Index), buf[n:])
	n += marshalString(chunk.Content, buf[n:])
	n += marshalVector(chunk.Vector, buf[n:])
	n += marshalString(chunk.Metadata.Model, buf[n:])
	n += marshalUint64(uint64(chunk.Metadata.Dimension), buf[n:])
	n += marshalString(chunk.Metadata.Filename, buf[n:])
	n += marshalString(chunk.Metadata.MimeType, buf[n:])
	marshalTime(chunk.CreatedAt, buf[n:])
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	r := reader{data: data}
	chunk := &core.Chunk{
		Id:         core.ID(r.uint64()),
		Owner:      r.string(),
		DocumentId: core.ID(r.uint64()),
		Index:      int(r.uint64()),
		Content:    r.string(),
		Vector:     r.vector(),
	}
	chunk.Metadata.Model = r.string()
	chunk.Metadata.Dimension = int(r.uint64())
	chunk.Metadata.Filename = r.string()
	chunk.Metadata.MimeType = r.string()
	chunk.CreatedAt = r.time()
	if r.err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, r.err)
	}
	return chunk, nil
}

// Field-level helpers built on mus varint serializers.

func sizeUint64(v uint64) int {
	return varint.Uint64.Size(v)
}

func marshalUint64(v uint64, bs []byte) int {
	return varint.Uint64.Marshal(v, bs)
}

func sizeString(s string) int {
	return varint.Uint64.Size(uint64(len(s))) + len(s)
}

func marshalString(s string, bs []byte) int {
	n := varint.Uint64.Marshal(uint64(len(s)), bs)
	n += copy(bs[n:], s)
	return n
}

func sizeVector(v []float32) int {
	size := varint.Uint64.Size(uint64(len(v)))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

// Timestamps are stored as unix microseconds.

func sizeTime(t time.Time) int {
	return varint.Uint64.Size(uint64(t.UnixMicro()))
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Uint64.Marshal(uint64(t.UnixMicro()), bs)
}

// reader decodes fields sequentially, capturing the first error so call
// sites stay linear.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.data[r.pos:])
	if err != nil {
		r.err = err
		return 0
	}
	r.pos += n
	return v
}

func (r *reader) string() string {
	length := r.uint64()
	if r.err != nil {
		return ""
	}
	if uint64(len(r.data)-r.pos) < length {
		r.err = ErrTruncatedData
		return ""
	}
	s := string(r.data[r.pos : r.pos+int(length)])
	r.pos += int(length)
	return s
}

func (r *reader) vector() []float32 {
	length := r.uint64()
	if r.err != nil {
		return nil
	}
	if length == 0 {
		return nil
	}
	if length > uint64(len(r.data)-r.pos) {
		// Each element occupies at least one byte; fail early on nonsense.
		r.err = ErrTruncatedData
		return nil
	}
	v := make([]float32, 0, length)
	for i := uint64(0); i < length; i++ {
		bits, n, err := varint.Uint32.Unmarshal(r.data[r.pos:])
		if err != nil {
			r.err = err
			return nil
		}
		r.pos += n
		v = append(v, math.Float32frombits(bits))
	}
	return v
}

func (r *reader) time() time.Time {
	micros := r.uint64()
	if r.err != nil {
		return time.Time{}
	}
	return time.UnixMicro(int64(micros)).UTC()
}
