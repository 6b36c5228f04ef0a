// Package cmd defines the jobparser CLI.
//
// Architecture overview:
//   - Content fetcher: internal/fetcher/static performs a colly fetch first and falls back to a manual
//     GET with explicit decompression and charset detection when the output is short or garbled.
//   - Render queue: internal/render.Queue admits at most render.max_concurrent_instances headless
//     Chrome renders at a time in FIFO order. Every caller is bounded by queue_timeout + request_timeout.
//   - Render decision: internal/render.Service renders allow-listed JS-heavy domains when rendering is
//     available and otherwise fetches statically, promoting client-side shells to a render.
//   - Extraction: internal/extract holds one extractor per job board plus a generic JSON-LD/meta
//     extractor. internal/dispatcher routes each URL to the first extractor that accepts it and never
//     lets a failure escape as anything other than an unsuccessful ParseResult.
//   - Plumbing: Viper loads config from env/files, zap logs, Prometheus metrics are served on /metrics,
//     failure snapshots go to memory, local disk or GCS, and successful results can be cached in
//     memory or Redis.
//
// Commands:
//   - serve: run the HTTP surface (POST /v1/parse, POST /v1/parse/batch, GET /v1/render/status).
//   - parse URL...: parse one or more postings and print the results as JSON or YAML (--output yaml).
//   - sites: list the supported job sites in routing order.
//
// Quick checklist:
//   - Configure env vars: JOBPARSER_SERVER_PORT or PORT, JOBPARSER_RENDER_ENABLED,
//     JOBPARSER_RENDER_MAX_CONCURRENT_INSTANCES, JOBPARSER_STORAGE_SNAPSHOT_BACKEND,
//     JOBPARSER_CACHE_BACKEND and friends. A .env file (or --env-file) is loaded first when present.
//   - Run locally: go run . parse https://boards.greenhouse.io/acme/jobs/123
//   - Containers: the server listens on PORT and drains the render queue on SIGTERM.
package cmd
