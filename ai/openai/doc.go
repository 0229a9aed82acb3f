// Package openai implements the ai interfaces against OpenAI-compatible HTTP
// APIs (OpenAI, Ollama, LocalAI, vLLM) via langchaingo.
//
// The Provider wires an embedding client and a chat-completion client from one
// ai.Config. Answer generation streams tokens through ai.TokenFunc using the
// underlying client's streaming support.
package openai
