// Package server runs the document server transports: the chi HTTP API with
// its websocket change feeds and the gRPC health service. Both share one
// lifecycle and stop together on a signal or the first serving error.
package server
