package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference.
//
// # Fetch Errors (FETCH001-FETCH099)
//
//	FETCH001 - Document not published: the host answered with an HTML page
//	FETCH002 - Page too large: the page exceeds the configured size limit
//	FETCH003 - Page not found: the host answered 404
//	FETCH004 - Download failed: any other transport failure
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import aborted: stopped by request before finishing
//	IMP002 - Import not found: unknown or expired run ID
//	IMP003 - System busy: too many imports in progress
//	IMP004 - Request timeout: the run or request timed out
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Unknown dataset: the key is not registered
//	DS002 - Missing document: no document ID given or configured
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Sentinel and typed errors are matched with errors.Is and errors.As first.
// Plain errors fall back to case-insensitive substring patterns; the first
// match wins.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgNotPublished = UserMessage{
		Message: "The document is not published or not shared publicly",
		Action:  "Publish the document to the web or share it with anyone with the link",
		Code:    "FETCH001",
	}
	msgPageTooLarge = UserMessage{
		Message: "A page exceeds the maximum size limit",
		Action:  "Split the page or raise SHEETS_MAX_PAGE_BYTES",
		Code:    "FETCH002",
	}
	msgPageNotFound = UserMessage{
		Message: "A page of the document could not be found",
		Action:  "Check the document ID and page names",
		Code:    "FETCH003",
	}
	msgDownloadFailed = UserMessage{
		Message: "A page could not be downloaded",
		Action:  "Check your connection and the document ID, then try again",
		Code:    "FETCH004",
	}
	msgAborted = UserMessage{
		Message: "Import was aborted",
		Action:  "Start a new import when ready",
		Code:    "IMP001",
	}
	msgNotFound = UserMessage{
		Message: "Import session not found",
		Action:  "The import may have expired. Please start a new import",
		Code:    "IMP002",
	}
	msgBusy = UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP003",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try again later",
		Code:    "IMP004",
	}
	msgUnknownDataset = UserMessage{
		Message: "Dataset is not configured",
		Action:  "Verify the dataset key is correct",
		Code:    "DS001",
	}
	msgMissingDocument = UserMessage{
		Message: "No document was specified",
		Action:  "Pass a document ID or configure SHEETS_DEFAULT_DOCUMENT",
		Code:    "DS002",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that arrive without their sentinel, such as
// messages relayed from a finished run.
var errorPatterns = []errorPattern{
	{pattern: "page is not csv", msg: msgNotPublished},
	{pattern: "page too large", msg: msgPageTooLarge},
	{pattern: "status 404", msg: msgPageNotFound},
	{pattern: "download page", msg: msgDownloadFailed},
	{pattern: "import aborted", msg: msgAborted},
	{pattern: "import not found", msg: msgNotFound},
	{pattern: "too many concurrent imports", msg: msgBusy},
	{pattern: "deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "unknown dataset", msg: msgUnknownDataset},
	{pattern: "no document id", msg: msgMissingDocument},
	{pattern: "rate limit", msg: msgRateLimited},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrPageNotCSV):
		return msgNotPublished
	case errors.Is(err, ErrPageTooLarge):
		return msgPageTooLarge
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return msgPageNotFound
	case errors.Is(err, ErrAborted):
		return msgAborted
	case errors.Is(err, ErrImportNotFound):
		return msgNotFound
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, ErrUnknownDataset):
		return msgUnknownDataset
	case errors.Is(err, ErrMissingDocument):
		return msgMissingDocument
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return msgDownloadFailed
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError returns a user-friendly error string with code and action.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
