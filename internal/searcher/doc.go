// Package searcher answers keyword lookups against either storage tier.
//
// # Sources
//
// Cache (types.SourceCache, wire aliases "cache" and "redis"):
//
//   - Enumerates every "file:*" key and fetches values with bounded fan-out
//   - Case-sensitive substring match on the decoded content
//   - Expired or unreadable entries are skipped; no row cap; unordered
//
// Durable (types.SourceDurable, wire aliases "durable", "sqlite" and "db"):
//
//   - Parameterized LIKE '%keyword%' with wildcards escaped
//   - ASCII case-insensitive, ordered by file path, capped at 100 rows
//   - Includes the package name of each match
//
// Both return at most 500 characters of content per match and the elapsed
// time of the lookup:
//
//	res, err := s.Query(ctx, "abc123", types.SourceDurable)
//	fmt.Printf("%d matches in %.2fms\n", res.Count(), res.CostMS())
//
// # Package Listings
//
// ListPackages, ListPaths and Apps read the PackageIndex populated by the
// most recent scan; they reflect nothing older.
//
// # Destructive Operations
//
// PurgeCache removes cache entries only. ClearAll removes durable rows,
// cache entries and the package index, and is refused with
// types.ErrScanInProgress while a scan is running.
package searcher
