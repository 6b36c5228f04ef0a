// Package api hosts the HTTP server, middleware, and REST handlers that put
// the job parser behind a network boundary. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/parse and /v1/parse/batch to extract job postings.
//   - GET /v1/sites and /v1/render/status for introspection.
package api
