package failure

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for a failure kind. Codes are part of the public
// response contract of the HTTP façade and must not be renamed.
type Code string

const (
	TxFormat       Code = "TX_FORMAT"
	InvalidURL     Code = "INVALID_URL"
	InvalidProto   Code = "INVALID_PROTOCOL"
	HostNotAllowed Code = "HOST_NOT_ALLOWED"
	TxExtract      Code = "TX_EXTRACT_FAILED"

	BrowserLaunch Code = "BROWSER_LAUNCH_FAILED"
	PageLoad      Code = "PAGE_LOAD_FAILED"
	PageTimeout   Code = "PAGE_TIMEOUT"
	Navigation    Code = "NAVIGATION_ERROR"
	HTTPStatus    Code = "HTTP_ERROR"

	EmptyHTML  Code = "EMPTY_HTML"
	TxNotFound Code = "TX_NOT_FOUND"
	ParseFail  Code = "PARSE_FAIL"
	Unknown    Code = "UNKNOWN_ERROR"
)

var messages = map[Code]string{
	TxFormat:       "Transaction ID must be exactly 10 letters or digits",
	InvalidURL:     "URL could not be parsed",
	InvalidProto:   "Only http and https URLs are accepted",
	HostNotAllowed: "URL host is not on the allow-list",
	TxExtract:      "Could not find a transaction ID in the URL",
	BrowserLaunch:  "Headless browser could not be started",
	PageLoad:       "Receipt page failed to load",
	PageTimeout:    "Timed out waiting for the receipt page",
	Navigation:     "Navigation to the receipt page failed",
	HTTPStatus:     "Receipt page returned an error status",
	EmptyHTML:      "Receipt page was empty",
	TxNotFound:     "Transaction not found",
	ParseFail:      "Receipt page did not contain the required fields",
	Unknown:        "Unknown error",
}

// Message returns the human-readable message for a code.
func Message(c Code) string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[Unknown]
}

// Codes lists every known code in a stable order.
func Codes() []Code {
	return []Code{
		TxFormat, InvalidURL, InvalidProto, HostNotAllowed, TxExtract,
		BrowserLaunch, PageLoad, PageTimeout, Navigation, HTTPStatus,
		EmptyHTML, TxNotFound, ParseFail, Unknown,
	}
}

// Error is a classified failure. Details carries structured diagnostics and Err
// the original cause when one exists.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with the default message for code.
func New(code Code) *Error {
	return &Error{Code: code, Message: Message(code)}
}

// Wrap classifies err under code, keeping it as the original cause.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Message: Message(code), Err: err}
}

// WithDetails attaches structured diagnostics.
func (e *Error) WithDetails(d any) *Error {
	e.Details = d
	return e
}

// As extracts the classified failure from err. Unclassified errors come back as
// UNKNOWN_ERROR wrapping the original.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return Wrap(Unknown, err)
}

// CodeOf returns the code of err. Unclassified errors report UNKNOWN_ERROR and
// a nil error reports the empty code.
func CodeOf(err error) Code {
	if fe := As(err); fe != nil {
		return fe.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
