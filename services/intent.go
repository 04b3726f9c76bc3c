package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Intent is the classified purpose of an inbound message.
type Intent int

const (
	IntentGreeting Intent = iota
	IntentAdmin
	IntentListing
	IntentLookup
	IntentFallback
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentAdmin:
		return "admin"
	case IntentListing:
		return "listing"
	case IntentLookup:
		return "lookup"
	default:
		return "fallback"
	}
}

// StatusCommand is the reserved operational-status token.
const StatusCommand = "/status"

// adminCommand prefixes a privileged-access token: "/admin <token>".
const adminCommand = "/admin"

// greetings covers Spanish and English salutations. Entries are stored in
// normalized form so membership checks are a plain map lookup.
var greetings = map[string]bool{
	"/start":        true,
	"hola":          true,
	"buenas":        true,
	"buenos dias":   true,
	"buenos días":   true,
	"buenas tardes": true,
	"buenas noches": true,
	"hello":         true,
	"hi":            true,
	"hey":           true,
	"good morning":  true,
	"good evening":  true,
}

// catalogKeywords trigger a catalog listing when any of them appears in the
// message. Bilingual, accented and unaccented spellings both listed.
var catalogKeywords = []string{
	"lista",
	"productos",
	"producto",
	"catalogo",
	"catálogo",
	"precios",
	"ofertas",
	"comprar",
	"products",
	"list",
	"catalog",
	"prices",
	"buy",
}

// Normalize lowers case (Unicode fold), applies NFC and collapses runs of
// whitespace, so classification sees "  HOLA " and "hola" as the same input.
// A Caser is stateful and not safe for concurrent use, so one is built per
// call.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = cases.Fold().String(text)
	return strings.Join(strings.Fields(text), " ")
}

// Classify maps one inbound message to an intent. Rules are checked in
// strict priority order, first match wins: greeting, admin command, catalog
// listing, numeric lookup, fallback. Pure function of the normalized input.
func Classify(text string) Intent {
	normalized := Normalize(text)

	if greetings[normalized] {
		return IntentGreeting
	}

	if normalized == StatusCommand || normalized == adminCommand ||
		strings.HasPrefix(normalized, adminCommand+" ") {
		return IntentAdmin
	}

	for _, word := range strings.Fields(normalized) {
		for _, keyword := range catalogKeywords {
			if word == keyword {
				return IntentListing
			}
		}
	}

	if n, ok := parseLookupNumber(normalized); ok && n > 0 {
		return IntentLookup
	}

	return IntentFallback
}

// parseLookupNumber reports whether the whole message is a positive integer.
func parseLookupNumber(normalized string) (int, bool) {
	if normalized == "" || len(normalized) > 6 {
		return 0, false
	}
	n := 0
	for _, r := range normalized {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
