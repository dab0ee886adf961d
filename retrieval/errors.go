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

package retrieval

import "errors"

var (
	// ErrSourceRequired is returned when a library source is not provided.
	ErrSourceRequired = errors.New("library source required")

	// ErrStrategyRequired is returned when a match strategy is not provided.
	ErrStrategyRequired = errors.New("match strategy required")

	// ErrScorerRequired is returned when a scorer is not provided.
	ErrScorerRequired = errors.New("scorer required")

	// ErrInvalidConfig indicates an out-of-range retrieval setting.
	ErrInvalidConfig = errors.New("invalid retrieval configuration")

	// ErrVectorDisabled is returned by vector-only operations when no index
	// is configured or vector matching is turned off.
	ErrVectorDisabled = errors.New("vector matching disabled")
)
