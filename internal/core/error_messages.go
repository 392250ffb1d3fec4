package core

// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Codes are grouped by category:
//
// # Record Errors (REC001-REC099)
//
//	REC001 - Malformed row: A data row has fewer fields than its header
//	         Action: Fix the reported line; every row needs all columns
//	         Patterns: "malformed row"
//
//	REC002 - Unknown kind: The record kind is not configured
//	         Action: Use hospitals, providers, patients or treatments
//	         Patterns: "unknown record kind"
//
//	REC003 - Unencodable value: A treatment value cannot be stored in the file
//	         Action: Remove line breaks, commas and double quotes
//	         Patterns: "unencodable field"
//
// # Write Errors (WRT001-WRT099)
//
//	WRT001 - Writer busy: Another edit is being saved
//	         Action: Please wait a moment and try again
//	         Patterns: "writer busy"
//
//	WRT002 - Save failed: The treatments file could not be written
//	         Action: Check free disk space and directory permissions
//	         Patterns: "save treatments"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Missing file: A data file could not be found
//	          Action: Check DATA_DIR and the configured file names
//	          Patterns: "no such file or directory", "file does not exist"
//
//	FILE002 - Permission denied: A data file could not be opened
//	          Action: Check the file permissions of the data directory
//	          Patterns: "permission denied"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
//	REQ003 - Invalid request: The request body or parameters are invalid
//	         Patterns: "invalid request"
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application logs for the
// original technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "malformed row",
		msg: UserMessage{
			Message: "A data row has fewer fields than its header",
			Action:  "Fix the reported line; every row needs all columns",
			Code:    "REC001",
		},
	},
	{
		pattern: "unknown record kind",
		msg: UserMessage{
			Message: "The record kind is not configured",
			Action:  "Use hospitals, providers, patients or treatments",
			Code:    "REC002",
		},
	},
	{
		pattern: "unencodable field",
		msg: UserMessage{
			Message: "A treatment value contains a character the file cannot store",
			Action:  "Remove line breaks, commas and double quotes",
			Code:    "REC003",
		},
	},
	{
		pattern: "writer busy",
		msg: UserMessage{
			Message: "Another edit is being saved",
			Action:  "Please wait a moment and try again",
			Code:    "WRT001",
		},
	},
	{
		pattern: "save treatments",
		msg: UserMessage{
			Message: "The treatments file could not be written",
			Action:  "Check free disk space and directory permissions",
			Code:    "WRT002",
		},
	},
	{
		pattern: "no such file or directory",
		msg: UserMessage{
			Message: "A data file could not be found",
			Action:  "Check DATA_DIR and the configured file names",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "A data file could not be found",
			Action:  "Check DATA_DIR and the configured file names",
			Code:    "FILE001",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "A data file could not be opened",
			Action:  "Check the file permissions of the data directory",
			Code:    "FILE002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request is invalid",
			Action:  "Check the request body and parameters",
			Code:    "REQ003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the ERR000 fallback when no pattern matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates "Message (Code: XXX). Action" for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
