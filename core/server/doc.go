// Package server holds the HTTP server configuration.
//
// The cmd package builds the Fiber application from it: listen address, request read
// timeout, graceful shutdown bound, and the optional API key enforced by the auth
// middleware.
package server
