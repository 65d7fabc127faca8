// Package pattern holds the POCT1 notation patterns shared by the message
// recognizer and the impact classifier.
package pattern

import (
	"regexp"
	"strings"
	"unicode"
)

// Message identifier notations, most specific first.
var (
	// OBS.R01
	MessageStandard = regexp.MustCompile(`\b([A-Z]{3,})\.[A-Z]\d{2}\b`)
	// OBS^OBS_R01
	MessageCaret = regexp.MustCompile(`\b[A-Z]{3}\^[A-Z]{3}_[A-Z]\d{2}\b`)
	// OBS_R01, OBS^R01, DST.R1 ...
	MessageCatchAll = regexp.MustCompile(`\b[A-Z]{3,}[.^_][A-Z]+\d+\b`)
	// Mes.custom.data.v2
	MessageVendorMulti = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]+(?:\.[a-zA-Z0-9]+)+\b`)
)

// Field identifier notations, canonical first.
var (
	// MSH-9
	FieldStandard = regexp.MustCompile(`\b([A-Z]{3})-(\d+)\b`)
	// MSH.9
	FieldDot = regexp.MustCompile(`\b([A-Z]{3})\.(\d+)\b`)
	// PV-1, OBX_3 ...
	FieldCatchAll = regexp.MustCompile(`\b([A-Z]{2,})[-._](\d+)\b`)
)

// Vendor extension notations.
var (
	// ZXY as a standalone segment inside free text
	VendorSegment = regexp.MustCompile(`\bZ[A-Z]{2}\b`)
	// Z-prefixed message prefix (ZXY, ZAB1 ...)
	VendorPrefix = regexp.MustCompile(`^Z[A-Z0-9]{2,}$`)
)

// Field attribute notations used when comparing versions of a field definition.
var (
	FieldLabel  = regexp.MustCompile(`(?i)(?:Field|Name):\s*([A-Za-z_][A-Za-z0-9_]*)`)
	DataType    = regexp.MustCompile(`\b(ST|NM|CX|CE|TS|DTM|ID|IS|TX|FT|DT|TM)\b`)
	Optionality = regexp.MustCompile(`\b([ROC])(?:\[\d+\.\.\d+\])?\b`)
)

var vendorMultiExact = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]+(?:\.[a-zA-Z0-9]+)+$`)

// IsVendorMultiSegment reports whether id is a dotted vendor identifier such
// as Mes.custom.data.v2. The standard all-caps SEGMENT.TRIGGER form is not.
func IsVendorMultiSegment(id string) bool {
	if !vendorMultiExact.MatchString(id) {
		return false
	}
	return strings.IndexFunc(id, unicode.IsLower) >= 0
}

// NormalizeMessageID canonicalizes a matched message notation.
func NormalizeMessageID(match string) string {
	if prefix, rest, ok := strings.Cut(match, "^"); ok && strings.Contains(rest, "_") {
		return prefix + "." + rest[strings.LastIndex(rest, "_")+1:]
	}
	if IsVendorMultiSegment(match) {
		return match
	}
	return strings.NewReplacer("_", ".", "^", ".").Replace(match)
}

// MessagePrefix returns the segment before the first separator.
func MessagePrefix(id string) string {
	if i := strings.IndexAny(id, ".^_"); i >= 0 {
		return id[:i]
	}
	return id
}

// CanonicalFieldID returns the SEGMENT-NUMBER form of the first field
// identifier in s, trying the notations in order.
func CanonicalFieldID(s string) (string, bool) {
	for _, re := range []*regexp.Regexp{FieldStandard, FieldDot, FieldCatchAll} {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1] + "-" + m[2], true
		}
	}
	return "", false
}

// MessageIDs returns every normalized message identifier in text, in
// pattern order and then match order, without duplicates.
func MessageIDs(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, re := range []*regexp.Regexp{MessageStandard, MessageCaret, MessageCatchAll} {
		for _, m := range re.FindAllString(text, -1) {
			add(NormalizeMessageID(m))
		}
	}
	for _, m := range MessageVendorMulti.FindAllString(text, -1) {
		if IsVendorMultiSegment(m) {
			add(m)
		}
	}
	return ids
}
