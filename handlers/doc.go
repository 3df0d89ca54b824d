// Package handlers provides HTTP request handlers for the planets API.
//
// Overview
//
// All handlers hang off PlanetHandler, which is built once at start-up
// with the shared connection pool:
//   - planets.go: GET /planets, full table listing
//   - nearest.go: GET /nearest_planet, nearest row to a galactic coordinate
//   - health.go: GET /healthz, database round-trip check
//
// Request Flow
//
// Each handler follows the same pattern:
//  1. Record start time
//  2. Parse and validate query parameters (nearest_planet only)
//  3. Acquire a pooled connection
//  4. Run one fixed statement
//  5. Release the connection, whatever happened
//  6. Coerce values and respond with JSON
//  7. Log and update metrics
//
// Error Handling
//
//   - 400: Bad Request (missing or non-numeric coordinates)
//   - 404: Not Found (planets table is empty)
//   - 500: Internal Server Error (store unreachable or query failed)
//
// Release failures are logged and counted, never returned to the client.
//
// Metrics
//
//   - planets_api_requests_total: requests by endpoint and status
//   - planets_api_request_duration_seconds: duration by endpoint
//   - planets_api_store_errors_total: store errors by endpoint and stage
//   - planets_api_connection_release_errors_total: suppressed release failures
//   - planets_api_rows_fetched: rows read per request
package handlers
