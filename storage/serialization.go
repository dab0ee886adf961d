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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/lorekeep/core"
)

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(entry *core.Entry) []byte {
	size := ord.String.Size(entry.ID) +
		ord.String.Size(entry.Tag) +
		ord.String.Size(entry.Content) +
		raw.Float64.Size(entry.Importance) +
		ord.Bool.Size(entry.Enabled) +
		ord.String.Size(entry.TargetActorID) +
		sizeStrings(entry.Tags) +
		sizeTime(entry.CreatedAt) +
		sizeTime(entry.UpdatedAt)

	e := &encoder{bs: make([]byte, size)}
	e.string(entry.ID)
	e.string(entry.Tag)
	e.string(entry.Content)
	e.n += raw.Float64.Marshal(entry.Importance, e.bs[e.n:])
	e.n += ord.Bool.Marshal(entry.Enabled, e.bs[e.n:])
	e.string(entry.TargetActorID)
	e.strings(entry.Tags)
	e.time(entry.CreatedAt)
	e.time(entry.UpdatedAt)
	return e.bs
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*core.Entry, error) {
	d := &decoder{bs: data}
	entry := &core.Entry{}
	entry.ID = d.string()
	entry.Tag = d.string()
	entry.Content = d.string()
	entry.Importance = d.float64()
	entry.Enabled = d.bool()
	entry.TargetActorID = d.string()
	entry.Tags = d.strings()
	entry.CreatedAt = d.time()
	entry.UpdatedAt = d.time()
	if d.err != nil {
		return nil, fmt.Errorf("%w: entry: %w", ErrSerializationFailed, d.err)
	}
	return entry, nil
}

// MarshalFlags serializes ExtendedFlags to bytes.
func MarshalFlags(flags core.ExtendedFlags) []byte {
	size := ord.Bool.Size(flags.CanBeExtracted) +
		ord.Bool.Size(flags.CanBeMatched) +
		varint.Int.Size(int(flags.MatchMode))

	e := &encoder{bs: make([]byte, size)}
	e.n += ord.Bool.Marshal(flags.CanBeExtracted, e.bs[e.n:])
	e.n += ord.Bool.Marshal(flags.CanBeMatched, e.bs[e.n:])
	e.n += varint.Int.Marshal(int(flags.MatchMode), e.bs[e.n:])
	return e.bs
}

// UnmarshalFlags deserializes ExtendedFlags from bytes.
func UnmarshalFlags(data []byte) (core.ExtendedFlags, error) {
	d := &decoder{bs: data}
	flags := core.ExtendedFlags{
		CanBeExtracted: d.bool(),
		CanBeMatched:   d.bool(),
		MatchMode:      core.MatchMode(d.int()),
	}
	if d.err != nil {
		return core.DefaultFlags(), fmt.Errorf("%w: flags: %w", ErrSerializationFailed, d.err)
	}
	return flags, nil
}

// MarshalSnapshot serializes a VectorSnapshot to bytes.
func MarshalSnapshot(snapshot *core.VectorSnapshot) []byte {
	size := sizeStrings(snapshot.IDs) + sizeStrings(snapshot.Embeddings) + sizeStrings(snapshot.Hashes)

	e := &encoder{bs: make([]byte, size)}
	e.strings(snapshot.IDs)
	e.strings(snapshot.Embeddings)
	e.strings(snapshot.Hashes)
	return e.bs
}

// UnmarshalSnapshot deserializes a VectorSnapshot from bytes.
func UnmarshalSnapshot(data []byte) (*core.VectorSnapshot, error) {
	d := &decoder{bs: data}
	snapshot := &core.VectorSnapshot{
		IDs:        d.strings(),
		Embeddings: d.strings(),
		Hashes:     d.strings(),
	}
	if d.err != nil {
		return nil, fmt.Errorf("%w: snapshot: %w", ErrSerializationFailed, d.err)
	}
	return snapshot, nil
}

// encoder writes sequential values into a presized buffer.
type encoder struct {
	bs []byte
	n  int
}

func (e *encoder) string(s string) {
	e.n += ord.String.Marshal(s, e.bs[e.n:])
}

func (e *encoder) strings(ss []string) {
	e.n += varint.Int.Marshal(len(ss), e.bs[e.n:])
	for _, s := range ss {
		e.string(s)
	}
}

func (e *encoder) time(t time.Time) {
	e.n += varint.Int64.Marshal(timeValue(t), e.bs[e.n:])
}

// decoder reads sequential values and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) float64() float64 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) strings() []string {
	count := d.int()
	if d.err != nil || count == 0 {
		return nil
	}
	// Every string needs at least one length byte.
	if count < 0 || count > len(d.bs)-d.n {
		d.err = ErrTruncatedData
		return nil
	}
	ss := make([]string, 0, count)
	for i := 0; i < count && d.err == nil; i++ {
		ss = append(ss, d.string())
	}
	return ss
}

func (d *decoder) time() time.Time {
	if d.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	if err != nil || v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func sizeStrings(ss []string) int {
	size := varint.Int.Size(len(ss))
	for _, s := range ss {
		size += ord.String.Size(s)
	}
	return size
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeValue(t))
}

// timeValue stores times as Unix microseconds, with zero meaning unset.
func timeValue(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
