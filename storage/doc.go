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

// Package storage provides the storage abstraction layer for ragline.
//
// It defines owner-scoped repository interfaces for documents, ingestion
// jobs, chunk jobs and persisted chunks, plus a blob store for raw uploads.
// Different backends can be used interchangeably; the badger sub-package
// provides the embedded BadgerDB implementation.
//
// # Constructor Return Type Pattern
//
// Public backend constructors return interface types to enforce abstraction
// and keep consumers swappable across storage backends. Internal constructors
// may return concrete types.
//
// # Owner Scoping
//
// Every repository method takes the owner id of the calling principal and
// only ever observes that owner's rows. There is no cross-owner read path.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
