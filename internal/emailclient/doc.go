// Package emailclient sends transactional emails through a JSON HTTP API
// compatible with the SendGrid v3 mail/send payload.
//
// A Client is built once per process and shared: it holds no per-request
// state beyond the HTTP transport's connection pool. Every request carries
// a bearer token and is bounded by a total timeout (10s by default). The
// client never retries; a caller that wants retries injects a retrying
// HTTPDoer via WithDoer.
package emailclient
