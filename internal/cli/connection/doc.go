// Package connection is the HTTP client scriptloader-cli uses to talk to
// scriptloader-server.
//
// Every server response is wrapped in an envelope carrying a code, a
// message and a request ID; ParseResponse unwraps the data on success and
// turns failures into *APIError.
package connection
