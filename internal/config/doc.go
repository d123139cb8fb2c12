// Package config provides configuration loading, merging, and validation
// facilities for the habit tracker client and its document server.
//
// Configuration is assembled from multiple sources; for every field the
// first source that sets it wins:
//  1. Command-line flags (cobra overrides on the client, stdlib flags on the server)
//  2. Environment variables
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry points are [GetStructuredConfig] for the server and
// [GetClientConfig] for the client.
package config
