// Package httputil provides shared HTTP response helpers for handlers.
//
// Handlers use these instead of raw http.ResponseWriter calls so that
// status codes, JSON formatting, and the opacity of 5xx bodies stay
// consistent across endpoints.
package httputil
