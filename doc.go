// Package statichost hosts independent static websites under distinct hosts,
// storing each site's files in an object store and keeping an edge routing
// cache in sync so a CDN can route requests without hitting the metadata
// store on every request.
//
// # Key Components
//
//   - SiteService: publication (create/update/delete) and resolution of sites
//   - SiteRepo: interface for authoritative metadata (PostgreSQL, SQLite)
//   - ObjectStore: interface for blob storage (S3, sandboxed filesystem)
//   - RoutingCache: interface for the host -> routing-token edge cache with
//     version-tag conditional writes (CloudFront KeyValueStore, in-memory)
//
// # Publication
//
// An upload is either a set of loose text/html and text/css files or a single
// zip archive whose entries become the file set. Validated files are uploaded
// under sites/{id}/ and committed as file rows; the site's host is then
// written to the routing cache as "{id}=x={timestamp}".
//
// Multi-store writes are deliberately not transactional: a failure after the
// site row is inserted leaves the row in place and surfaces the error. The
// routing cache uses optimistic concurrency; losers of a publish race get
// ErrConcurrentModification and decide themselves whether to retry.
//
// # Resolution
//
// Resolve maps (host, subpath) to exactly one file row and streams its bytes
// back. An empty subpath resolves to the site's declared index file,
// defaulting to index.html.
//
// See the http package for the REST surface and the database, objectstore,
// and routing packages for backend implementations.
package statichost
