// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client runs one user session of the habit tracker on this machine.
//
// An [App] owns the local database, the document adapter and the sync core.
// The CLI uses it to show the board, drain the queue once or inspect the
// operations still waiting for the server.
package client
