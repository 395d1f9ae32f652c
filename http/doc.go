// Package http provides the HTTP surface for statichost.
//
// This package implements two route groups on a single chi router: the
// management API under /sites and the serving path under /s.
//
// # Features
//
//   - Multipart site publication (create and update)
//   - Paginated site listing and per-site detail
//   - Host-based resolution and streaming of stored files
//   - JSON message responses for mutations
//   - Configurable CORS support
//
// # Routes
//
// Management: POST /sites, GET /sites, GET /sites/{siteID},
// PUT /sites/{siteID}, DELETE /sites/{siteID}. Publication requests are
// multipart forms with fields domain, suffix, site_type, index_file and
// one or more file parts.
//
// Serving: GET and HEAD /s/{host}/{path...}. The host segment selects
// the site; an empty remainder serves the site's index file. Responses
// carry the stored content type and an exact Content-Length.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    CORS: http.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	router := handler.Router()
//	http.ListenAndServe(":8080", router)
//
// The service parameter must implement the Service interface with
// Create, Update, Delete, Get, List, and Resolve methods.
//
// # Error mapping
//
// Caller-fixable failures (invalid input, bad archives, taken domains)
// answer 400 with the reason in the message field. Unknown sites and
// files answer 404. Storage and routing-cache failures answer a generic
// 500 with the cause logged server side.
package http
