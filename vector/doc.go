// Package vector keeps one embedding per knowledge entry and answers
// nearest-neighbor queries by cosine similarity.
//
// Records are refreshed individually through Upsert and Remove, or in bulk
// through Resync, which only embeds entries whose content hash changed. The
// whole index can be saved and restored with Export and Import.
//
//	ix, err := vector.NewIndex(embedder)
//	if err != nil {
//		return err
//	}
//	defer ix.Release()
//
//	if _, err := ix.Resync(ctx, entries); err != nil {
//		return err
//	}
//	matches, err := ix.Query(ctx, "the old forge", 5, 0.75)
package vector
