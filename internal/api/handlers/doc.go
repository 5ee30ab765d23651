// Package handlers implements the classmart mock backend: the listing,
// photo, and telegram auth endpoints the client consumes, served from an
// in-memory store. JSON operations are huma operations; the multipart photo
// upload and photo media routes are plain echo handlers.
package handlers

// ErrorResponse is the error body of the echo routes. Huma's error model
// carries the same detail field, so clients read one shape everywhere.
type ErrorResponse struct {
	Detail string `json:"detail" example:"Listing not found"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}
