// Package ingest drives uploaded documents through the ingestion state
// machine: parse, chunk, embed, index.
//
// The Engine type processes each job as a chain of short invocations. One
// invocation runs one stage (or one embedding batch) and re-dispatches its
// successor, so progress survives restarts and large documents never
// monopolize a worker. Batch claims are atomic: when two invocations race for
// the same chunks, exactly one wins and the other backs off.
//
// Failures are classified fail-fast: the first failing chunk stops the job
// and stamps it with an error code clients can act on.
package ingest
