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


package vector

import "errors"

var (
	// ErrEmbedderRequired indicates that an embedder was not provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidConfig indicates an out-of-range index setting.
	ErrInvalidConfig = errors.New("invalid vector configuration")

	// ErrMalformedSnapshot indicates a snapshot that cannot be imported.
	ErrMalformedSnapshot = errors.New("malformed vector snapshot")

	// ErrResyncIncomplete indicates that some embeddings failed during resync.
	ErrResyncIncomplete = errors.New("resync incomplete")

	// ErrQueryTimeout indicates that Await gave up before the query finished.
	ErrQueryTimeout = errors.New("vector query timed out")

	// ErrIndexClosed indicates use of a released index.
	ErrIndexClosed = errors.New("vector index is closed")
)
