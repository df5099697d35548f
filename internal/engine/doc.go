// Package engine assembles forensicq from its configuration.
//
// New builds, in order: the SQLite connection pool and store (migrations
// applied), the cache backend (in-process LRU or Redis), the filesystem
// scanner, the content classifier, the indexer and the searcher. The HTTP
// and MCP transports both take an *Engine and never construct components
// themselves.
//
//	cfg, _ := config.Load("")
//	eng, err := engine.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	sum, err := eng.Indexer.Scan(ctx, "/evidence/dump")
//	res, err := eng.Searcher.Query(ctx, "password", types.SourceDurable)
package engine
