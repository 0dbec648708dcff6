// Package api is the HTTP client for the NutriKeeper backend.
//
// Every endpoint goes through one interceptor that attaches the stored
// bearer token, resends a request once after a connection-level failure,
// and on 401 erases the token and notifies the application. Responses use
// the {success, data, error} envelope; failures are normalized to *Error.
package api
