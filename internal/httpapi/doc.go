// Package httpapi serves the forensicq engine over HTTP/JSON.
//
// Routes:
//
//	GET  /                      service banner and version
//	POST /scan                  {"root_dir": "/evidence"}
//	POST /query                 {"keyword": "password", "source": "cache|durable"}
//	POST /query_by_category     {"keyword": "credentials"}
//	GET  /packages              package names from the last scan
//	GET  /package_paths         ?package_name=com.example.app
//	POST /release_memory        purge cache entries
//	POST /clear_data            purge both tiers and the package index
//	GET  /apps                  packages with app names and file counts
//	GET  /stats                 tier counts, pool occupancy, last scan
//
// Successful responses carry "status": "success" where the route reports a
// status; failures always return {"status": "error", "message": ...} with a
// 4xx or 5xx code. A scan already in progress yields 409 and an exhausted
// connection pool yields 503; both set "retryable": true.
package httpapi
