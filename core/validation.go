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

import (
	"fmt"
	"math"
	"strings"
)

// ValidateEntry validates an Entry according to domain rules.
//
// Validation rules:
//   - ID must not be blank
//   - Content must not be blank
//   - Importance must be finite
//
// NOT validated:
//   - Tags (an entry without tags is legal, it simply never matches lexically)
//   - TargetActorID (any string is a valid restriction)
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyID)
	}

	if strings.TrimSpace(entry.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyContent)
	}

	if math.IsNaN(entry.Importance) || math.IsInf(entry.Importance, 0) {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrInvalidImportance)
	}

	return nil
}

// ValidateLibrary validates every entry and checks that IDs are unique.
func ValidateLibrary(entries []*Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if err := ValidateEntry(entry); err != nil {
			return err
		}
		if seen[entry.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
		}
		seen[entry.ID] = true
	}
	return nil
}
