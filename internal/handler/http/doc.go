// Package http implements the HTTP transport of the document server.
//
// It exposes route wiring, document handlers, the websocket change feed and
// the middleware chain. Authentication, request tracing, access logging and
// response compression are handled here before requests are delegated to the
// service layer.
package http
