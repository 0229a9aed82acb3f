// Package retrieve performs owner-scoped similarity search over embedded
// document chunks. A query is embedded with the same model used at ingestion
// time and matched against the stored vectors by cosine similarity.
package retrieve
