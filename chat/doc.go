// Package chat answers grounded chat turns. Each turn retrieves the owner's
// most relevant chunks, assembles a prompt that cites them, and streams the
// generated answer back to the caller together with its citations.
package chat
