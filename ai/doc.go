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

// Package ai provides abstractions for the AI services used by ragline.
//
// This package defines interfaces for text embedding and grounded answer
// generation. It follows the dependency inversion principle, allowing the
// ingestion and retrieval logic to depend on abstractions rather than
// concrete provider implementations.
//
// The package is designed around three interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - Generator: produces a streamed completion from a message list
//   - Provider: aggregates both services for convenient initialization
//
// Implementation sub-packages:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// Public constructors in implementation packages return interface types to
// enforce abstraction; mock constructors return concrete types so tests can
// inject behavior and make assertions.
//
// NewDimensionGuard wraps any Embedder with dimensionality validation. A
// mismatch between configured and returned vector width signals provider
// misconfiguration and is never retried.
package ai
