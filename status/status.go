// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package status defines the closed status-code taxonomy shared by every
// public operation of the mpipe module.
//
// Codes are numeric and stable: Success is 0 and new codes are appended only.
// A Code implements the error interface, so operations return either a nil
// error (success) or one of the package constants, and callers branch with
// plain comparisons:
//
//	if err == status.Again {
//	    // buffer empty, try later
//	}
package status

// Code is a status code returned by mpipe operations.
//
// The numeric values form a stable contract; additions append only.
type Code int

const (
	// Success is the generic success code.
	Success Code = iota
	// Error is the generic error code.
	Error
	// NotModified reports that the requested resource was found but not
	// modified.
	NotModified
	// NotFound reports that the requested resource was not found.
	NotFound
	// Again reports that the resource is temporarily unavailable (call
	// again).
	Again
	// EOF reports end of file.
	EOF
	// NoMem reports that there is not enough space.
	NoMem
	// InvalidArg reports an invalid argument.
	InvalidArg
	// Conflict reports a conflict with the current state of the target
	// resource.
	Conflict
	// TimedOut reports that the operation timed out.
	TimedOut
	// Interrupted reports that the operation was interrupted.
	Interrupted
	// BadMediaFormat reports a bad or unsupported elementary-stream
	// format.
	BadMediaFormat
	// BadMuxFormat reports a bad or unsupported multiplex format.
	BadMuxFormat

	maxCode
)

var codeText = [maxCode]string{
	Success:        "success",
	Error:          "generic error",
	NotModified:    "not modified",
	NotFound:       "not found",
	Again:          "resource temporarily unavailable",
	EOF:            "end of file",
	NoMem:          "not enough space",
	InvalidArg:     "invalid argument",
	Conflict:       "conflict",
	TimedOut:       "timed out",
	Interrupted:    "interrupted",
	BadMediaFormat: "bad media format",
	BadMuxFormat:   "bad mux format",
}

// String returns the text form of the code.
func (c Code) String() string {
	if c < 0 || c >= maxCode {
		return "unknown status code"
	}
	return codeText[c]
}

// Error implements the error interface. Success stringifies like any other
// code, but success paths should return a nil error instead.
func (c Code) Error() string { return c.String() }

// From maps an arbitrary error to a Code: nil maps to Success, a Code maps
// to itself and anything else maps to Error.
func From(err error) Code {
	if err == nil {
		return Success
	}
	if c, ok := err.(Code); ok {
		return c
	}
	return Error
}
