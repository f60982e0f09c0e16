// Package http provides the chi router, middleware and JSON handlers of the
// time tracker API.
//
// The router exposes the following endpoints under /api:
//   - GET /health: liveness probe, plain text "ok".
//   - GET /ready: pings the database; 503 when it cannot be reached.
//   - GET /tags, POST /tags: list and create the caller's tags (`tagDTO`).
//   - GET /time-entries?from&to, POST /time-entries, GET /time-entries/{id}:
//     entries overlapping a window, direct creation and point lookup
//     (`entryDTO`, defined in dto.go).
//   - GET /timers/active, PATCH /timers/active, POST /timers/start,
//     POST /timers/stop, POST /timers/cancel: the running timer. GET answers
//     `null` while idle.
//
// GET /metrics serves Prometheus metrics outside the /api prefix.
//
// Requests act on behalf of the user named by the X-User-ID header, or the
// configured default user when the header is absent. Failures are answered
// with {"error","code","fields","missingTagIds"}.
package http
