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

package ingestion

import (
	"context"

	"github.com/poiesic/lorekeep/core"
)

// processor is an internal interface for keeping derived state in step
// with library edits. Implementations handle specific tasks like vector
// maintenance.
type processor interface {
	// upsert refreshes derived state for the given entries.
	upsert(ctx context.Context, entries ...*core.Entry) error

	// remove drops derived state for the given IDs.
	remove(ctx context.Context, ids ...string) error
}
