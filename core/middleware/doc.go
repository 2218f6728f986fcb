// Package middleware groups the HTTP middleware of the pipeline service.
//
//   - auth: API key validation (X-API-Key header or api_key query parameter).
//   - rayid: a per-request trace ID stored in Locals("ray_id") and echoed in the
//     X-Ray-ID response header.
//
// RayID is registered first so every later log line can carry the ID.
package middleware
