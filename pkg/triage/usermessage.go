package triage

import "strings"

type userMessage struct {
	text        string
	suggestions []string
}

var (
	networkMessage = userMessage{
		text: "Connection problem detected. Please check your internet connection.",
		suggestions: []string{
			"Check your internet connection",
			"Try refreshing the page",
			"Verify the server is running",
			"Contact support if the problem persists",
		},
	}
	sessionExpiredMessage = userMessage{
		text: "Your session has expired. Please log in again.",
		suggestions: []string{
			"Log out and log back in",
			"Clear your browser cache and cookies",
			"Contact your administrator if the problem persists",
		},
	}
	permissionDeniedMessage = userMessage{
		text: "You don't have permission to perform this action.",
		suggestions: []string{
			"Contact your administrator for access",
			"Verify you are logged in with the correct account",
			"Check your user role and permissions",
		},
	}
	authGenericMessage = userMessage{
		text: "Authentication problem detected. Please sign in again.",
		suggestions: []string{
			"Log out and log back in",
			"Verify your credentials",
			"Contact support if the problem persists",
		},
	}
	notFoundMessage = userMessage{
		text: "The requested resource was not found.",
		suggestions: []string{
			"Check that the item still exists",
			"Refresh the page to reload the latest data",
			"Go back and try again",
		},
	}
	serverErrorMessage = userMessage{
		text: "Server error occurred. Please try again later.",
		suggestions: []string{
			"Wait a few minutes and try again",
			"Refresh the page",
			"Contact support if the problem persists",
		},
	}
	apiGenericMessage = userMessage{
		text: "There was a problem communicating with the server.",
		suggestions: []string{
			"Try again in a moment",
			"Refresh the page",
			"Check the server status",
			"Contact support if the problem persists",
		},
	}
	validationMessage = userMessage{
		text: "Please check your input and try again.",
		suggestions: []string{
			"Review the highlighted fields",
			"Make sure all required fields are filled in",
			"Check the format of dates and numbers",
		},
	}
	runtimeMessage = userMessage{
		text: "An unexpected application error occurred.",
		suggestions: []string{
			"Refresh the page",
			"Clear your browser cache",
			"Report this issue to support with the error details",
		},
	}
	unknownMessage = userMessage{
		text: "Something went wrong. Please try again.",
		suggestions: []string{
			"Try the action again",
			"Refresh the page",
			"Contact support if the problem persists",
		},
	}
)

// UserMessage returns a plain-language summary and an ordered remediation
// checklist for a failure of category c. The auth and api categories
// re-inspect the raw message to pick between wordings; this inspection is
// independent of the classifier's. The returned slice is a fresh copy.
func UserMessage(raw any, c Category) (string, []string) {
	m := selectUserMessage(strings.ToLower(MessageOf(raw)), c)
	return m.text, append([]string(nil), m.suggestions...)
}

func selectUserMessage(lower string, c Category) userMessage {
	switch c {
	case CategoryNetwork:
		return networkMessage
	case CategoryAuth:
		switch {
		case containsAny(lower, "401", "unauthorized"):
			return sessionExpiredMessage
		case containsAny(lower, "403", "forbidden"):
			return permissionDeniedMessage
		default:
			return authGenericMessage
		}
	case CategoryAPI:
		switch {
		case containsAny(lower, "404", "not found"):
			return notFoundMessage
		case containsAny(lower, "500", "server error"):
			return serverErrorMessage
		default:
			return apiGenericMessage
		}
	case CategoryValidation:
		return validationMessage
	case CategoryRuntime:
		return runtimeMessage
	default:
		return unknownMessage
	}
}
