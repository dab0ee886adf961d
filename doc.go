// Package lorekeep retrieves and ranks knowledge entries for a
// conversational context.
//
// An Engine opens a badger-backed library and wires the keyword extractor,
// tag matcher, scorer, vector index and retriever from a config.Config:
//
//	eng, err := lorekeep.NewEngine(cfg)
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	res, err := eng.Retrieve(ctx, retrieval.Request{Context: "the forge", MaxEntries: 5})
package lorekeep
