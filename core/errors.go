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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid knowledge entry")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("entry id cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidImportance indicates importance is NaN or infinite.
	ErrInvalidImportance = errors.New("importance must be a finite number")

	// ErrInvalidMatchMode indicates an unknown match mode name.
	ErrInvalidMatchMode = errors.New("invalid match mode")

	// ErrDuplicateID indicates two entries in one library share an ID.
	ErrDuplicateID = errors.New("duplicate entry id")
)
