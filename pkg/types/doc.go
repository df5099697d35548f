// Package types provides shared type definitions for the forensicq engine.
//
// This package defines the records, query results, scan summaries and error
// sentinels that flow between the indexer, the searcher and the transports.
//
// # Core Types
//
// FileRecord is one ingested file as persisted in the durable store:
//
//	rec := types.FileRecord{
//	    FilePath:    "/data/data/com.example.app/databases/x.db",
//	    PackageName: "com.example.app",
//	    Content:     content,
//	    Category:    "credentials",
//	}
//
// Match and QueryResult describe a keyword lookup answered from either the
// cache tier or the durable tier:
//
//	res := &types.QueryResult{Source: types.SourceDurable, Elapsed: elapsed}
//	res.Matches = append(res.Matches, types.Match{FilePath: path, Content: types.Snippet(content, 500)})
//	fmt.Println(res.Count(), res.CostMS())
//
// # Errors
//
// Pre-condition failures (ErrInvalidRoot, ErrEmptyKeyword, ErrInvalidSource)
// are surfaced to callers immediately. ErrPoolExhausted is retryable.
// FileError and BatchError describe isolated failures that a scan records
// and continues past.
package types
