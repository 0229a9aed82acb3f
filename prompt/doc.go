// Package prompt assembles grounded generation prompts. Retrieved chunks
// become a numbered SOURCES block on the latest user message, and a parallel
// citation list maps each [S#] marker back to its chunk.
package prompt
