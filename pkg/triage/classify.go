package triage

import (
	"fmt"
	"reflect"
	"strings"
)

// Classifier maps a raw failure to a Classification. Implementations must be
// total: every input, including nil, yields a result.
type Classifier interface {
	Classify(raw any) Classification
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(raw any) Classification

// Classify calls f(raw).
func (f ClassifierFunc) Classify(raw any) Classification { return f(raw) }

// rule is one row of the classification policy. Rules are evaluated in order
// and the first rule with a matching keyword wins.
type rule struct {
	category  Category
	severity  Severity
	keywords  []string
	retryable func(lower string) bool
}

var classificationRules = []rule{
	{
		category:  CategoryNetwork,
		severity:  SeverityMedium,
		keywords:  []string{"network", "fetch", "connection", "econnrefused", "timeout"},
		retryable: func(string) bool { return true },
	},
	{
		category: CategoryAuth,
		severity: SeverityHigh,
		keywords: []string{"401", "unauthorized", "authentication", "token"},
	},
	{
		category: CategoryAuth,
		severity: SeverityHigh,
		keywords: []string{"403", "forbidden", "access denied", "permission"},
	},
	{
		category: CategoryAPI,
		severity: SeverityMedium,
		keywords: []string{"404", "not found", "400", "bad request", "500", "server error", "503", "service unavailable"},
		// Co-occurrence, not exclusivity: "404 ... 500" is retryable.
		retryable: func(lower string) bool {
			return strings.Contains(lower, "500") || strings.Contains(lower, "503")
		},
	},
	{
		category: CategoryValidation,
		severity: SeverityLow,
		keywords: []string{"validation", "invalid", "required", "format"},
	},
	{
		category: CategoryRuntime,
		severity: SeverityHigh,
		keywords: []string{"undefined", "null", "reference", "syntax"},
	},
}

// defaultClassifier is the package policy as a Classifier value.
type defaultClassifier struct{}

func (defaultClassifier) Classify(raw any) Classification { return Classify(raw) }

// DefaultClassifier returns the built-in substring policy.
func DefaultClassifier() Classifier { return defaultClassifier{} }

// Classify applies the built-in policy to raw. Matching is a case-insensitive
// substring search over MessageOf(raw). Unmatched failures are unknown, medium
// and retryable so that unrecognized errors are not treated as permanent.
func Classify(raw any) Classification {
	lower := strings.ToLower(MessageOf(raw))
	for _, r := range classificationRules {
		if !containsAny(lower, r.keywords...) {
			continue
		}
		retryable := false
		if r.retryable != nil {
			retryable = r.retryable(lower)
		}
		return Classification{Category: r.category, Severity: r.severity, Retryable: retryable}
	}
	return Classification{Category: CategoryUnknown, Severity: SeverityMedium, Retryable: true}
}

func containsAny(lower string, substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// MessageOf extracts the textual description of a raw failure. It never
// panics: nil yields "", errors and Stringers use their methods (typed nil
// pointers included), strings pass through, and values carrying a Message
// field or a "message" map key use that. Everything else is fmt.Sprint'ed.
func MessageOf(raw any) (msg string) {
	if raw == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%T", raw)
		}
	}()

	switch v := raw.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case map[string]any:
		if m, ok := v["message"]; ok {
			return fmt.Sprint(m)
		}
		return fmt.Sprint(v)
	case map[string]string:
		if m, ok := v["message"]; ok {
			return m
		}
		return fmt.Sprint(v)
	}

	if m, ok := messageField(raw); ok {
		return m
	}
	return fmt.Sprint(raw)
}

// messageField reads an exported string field named Message from a struct or
// pointer to struct.
func messageField(raw any) (string, bool) {
	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	f := rv.FieldByName("Message")
	if !f.IsValid() || f.Kind() != reflect.String || !f.CanInterface() {
		return "", false
	}
	return f.String(), true
}
