// Package classifier holds the pure heuristics applied to every ingested
// file: package-name extraction from paths, keyword-based content
// categories and the static app metadata table.
//
// Nothing here touches storage or keeps state between calls; the same input
// always yields the same output.
package classifier
