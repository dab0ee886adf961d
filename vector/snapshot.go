package vector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/lorekeep/core"
)

// Snapshot is the persisted save state of an Index.
type Snapshot = core.VectorSnapshot

// Export returns every record as a Snapshot ordered by ID.
func (ix *Index) Export() *Snapshot {
	ids := ix.IDs()
	snap := &Snapshot{
		IDs:        make([]string, 0, len(ids)),
		Embeddings: make([]string, 0, len(ids)),
		Hashes:     make([]string, 0, len(ids)),
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, id := range ids {
		rec, ok := ix.records[id]
		if !ok {
			continue
		}
		snap.IDs = append(snap.IDs, id)
		snap.Embeddings = append(snap.Embeddings, formatEmbedding(rec.Embedding))
		snap.Hashes = append(snap.Hashes, rec.ContentHash)
	}
	return snap
}

// Import replaces the stored records with those in snap. The index is left
// unchanged if snap is malformed.
func (ix *Index) Import(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}
	n := snap.Len()
	if n < 0 {
		return fmt.Errorf("%w: %d ids, %d embeddings, %d hashes",
			ErrMalformedSnapshot, len(snap.IDs), len(snap.Embeddings), len(snap.Hashes))
	}

	records := make(map[string]*core.VectorRecord, n)
	for i, id := range snap.IDs {
		if id == "" {
			return fmt.Errorf("%w: empty id at position %d", ErrMalformedSnapshot, i)
		}
		embedding, err := parseEmbedding(snap.Embeddings[i])
		if err != nil {
			return fmt.Errorf("%w: record %s: %v", ErrMalformedSnapshot, id, err)
		}
		records[id] = &core.VectorRecord{ID: id, Embedding: embedding, ContentHash: snap.Hashes[i]}
	}

	ix.gate.Lock()
	defer ix.gate.Unlock()
	ix.mu.Lock()
	ix.records = records
	ix.mu.Unlock()

	ix.logger.Debug("imported vector snapshot", "records", len(records))
	return nil
}

func formatEmbedding(v []float32) string {
	var sb strings.Builder
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return sb.String()
}

func parseEmbedding(s string) ([]float32, error) {
	if strings.TrimSpace(s) == "" {
		return []float32{}, nil
	}
	parts := strings.Split(s, ",")
	v := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
