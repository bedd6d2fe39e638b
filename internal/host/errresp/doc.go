// Package errresp turns a request failure into an HTTP error response.
//
// The Responder picks the status from the error chain (domain.HTTPError,
// otherwise 500), negotiates a serializer from the request's Accept header,
// writes the body and releases the listener context. Failing to deliver
// the response is logged and swallowed: the context is released in every
// case.
package errresp
