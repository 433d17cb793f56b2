package ratelimit

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category classifies outgoing payloads for rate limiting and client report
// accounting.
type Category string

// Categories this client knows about. The server may communicate limits for
// other categories; those are ignored.
const (
	CategoryAll         Category = ""
	CategoryError       Category = "error"
	CategoryTransaction Category = "transaction"
)

// knownCategories is the set of categories that can affect this client.
var knownCategories = map[Category]struct{}{
	CategoryAll:         {},
	CategoryError:       {},
	CategoryTransaction: {},
}

// FromEventType returns the category for an event with the given declared
// type. Absent or unknown types classify as errors.
func FromEventType(eventType string) Category {
	switch eventType {
	case string(CategoryTransaction):
		return CategoryTransaction
	default:
		return CategoryError
	}
}

// String returns the category formatted for debugging.
func (c Category) String() string {
	switch c {
	case "":
		return "CategoryAll"
	default:
		caser := cases.Title(language.English)
		rv := "Category"
		for _, w := range strings.Fields(string(c)) {
			rv += caser.String(w)
		}
		return rv
	}
}
