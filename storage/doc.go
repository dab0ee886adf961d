// Copyright 2025 Poiesic Systems
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


// Package storage provides the storage abstraction layer for lorekeep.
//
// This package defines repository interfaces that decouple persistence from
// the retrieval engine, so the library can live in BadgerDB, in memory, or
// in whatever store the host application already owns.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return interface types:
//
//	repo, err := badger.NewEntryRepository(backend)  // returns storage.EntryRepository
//
// # Architecture
//
//   - EntryRepository: CRUD over the knowledge library
//   - FlagStore: the extended-flag side table keyed by entry ID, with an
//     explicit Cleanup call tied to entry deletion
//   - SnapshotRepository: the persisted vector index save state
//
// Values are encoded with mus-go serializers (see serialization.go).
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
