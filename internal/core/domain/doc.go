// Package domain defines the error model shared by the host and the
// request pipeline.
//
// Errors carry a structured code in the form HL-<AREA>-<NNNN>. The first
// three digits of the numeric part are the HTTP status the error maps to,
// which is how the error responder picks a status without knowing every
// error type in the program:
//
//   - HL-REQ-4040: route not found (404)
//   - HL-REQ-4290: rate limited (429)
//   - HL-HOST-5030: host not listening (503)
//   - HL-SYS-5000: internal server error (500)
//
// Any error can opt into explicit status reporting by implementing HTTPError.
package domain
