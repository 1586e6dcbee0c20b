/*
normalize.go - Header aliasing and value normalization for source CSVs

PURPOSE:
  The roster and exception files come from different source-system exports
  that never agree on header names ("Employee ID" vs "Badge Barcode ID" vs
  "Login"). This file maps whatever headers arrive onto canonical fields and
  scrubs the values (spreadsheet float artifacts, zero-width characters,
  decorated shift codes).

KEY CONCEPTS:
  - Canonical header form: lower-cased, all non-alphanumerics stripped, so
    "Badge  Barcode-ID" and "badgebarcodeid" match.
  - Alias table: per logical field, an ORDERED list of accepted headers.
    The first alias found in the header row wins for that field.
  - FieldMap: the alias table resolved against one header row, once per
    upload. Row decoding is then plain index lookups.

LENIENCY CONTRACT:
  An unmapped field always reads as "", never an error. Callers treat ""
  as "unknown". Source exports are uncontrolled; the policy throughout this
  package is best-effort matching, not validation.

SEE ALSO:
  - records.go: decoders built on these alias tables
  - csv.go: raw table reading
*/
package roster

import (
	"strings"
	"unicode"
)

// Field names a logical column of a source file.
type Field string

const (
	FieldEID       Field = "eid"
	FieldName      Field = "name"
	FieldDept      Field = "department"
	FieldArea      Field = "management_area"
	FieldShiftCode Field = "shift_code"
	FieldManager   Field = "manager"
	FieldDate      Field = "date"
	FieldStart     Field = "start_date"
	FieldEnd       Field = "end_date"
	FieldStatus    Field = "status"
	FieldToCode    Field = "to_code"
	FieldKind      Field = "kind"
	FieldCount     Field = "count"
	FieldDirection Field = "direction"
)

// AliasTable maps each logical field to its ordered accepted headers.
type AliasTable map[Field][]string

// =============================================================================
// ALIAS TABLES - one per source file kind
// =============================================================================

// RosterAliases covers the headcount roster export variants.
var RosterAliases = AliasTable{
	FieldName:      {"Employee Name", "Name"},
	FieldEID:       {"Badge Barcode ID", "Badge", "Login", "EID", "Employee ID"},
	FieldDept:      {"Department ID", "Department", "Dept ID"},
	FieldArea:      {"Management Area ID", "Management Area", "Area ID"},
	FieldShiftCode: {"Shift Pattern", "Shift", "Pattern", "Shift Code"},
	FieldManager:   {"Manager Login", "Manager EID", "Manager Employee ID", "Manager Badge", "Manager User ID", "Manager Name"},
}

// SwapAliases covers both the swap-out and swap-in exports.
var SwapAliases = AliasTable{
	FieldEID:    {"EID", "Employee ID", "Badge", "Login"},
	FieldDate:   {"Date", "Day", "Swap Date"},
	FieldToCode: {"Swap To Code", "To Code", "Code", "New Shift"},
	FieldStatus: {"Status", "Approval Status", "State"},
}

// VetVtoAliases covers the voluntary extra-time / time-off export.
var VetVtoAliases = AliasTable{
	FieldEID:    {"EID", "Employee ID", "Badge", "Login"},
	FieldDate:   {"Date", "Opportunity Date", "Day"},
	FieldKind:   {"Type", "Opportunity Type", "Kind"},
	FieldStatus: {"Status", "Acceptance Status", "State"},
	FieldCount:  {"Accepted Count", "Accepted", "Count"},
}

// VacationAliases covers the leave/vacation range export.
var VacationAliases = AliasTable{
	FieldEID:   {"EID", "Employee ID", "Badge", "Login"},
	FieldStart: {"Start Date", "From", "Start"},
	FieldEnd:   {"End Date", "To", "End"},
}

// LaborShareAliases covers the cross-department labor-share export.
var LaborShareAliases = AliasTable{
	FieldEID:       {"EID", "Employee ID", "Badge", "Login"},
	FieldDirection: {"Direction", "In Out", "Type"},
	FieldCount:     {"Count", "Headcount", "Quantity"},
	FieldDate:      {"Date", "Day"},
	FieldStatus:    {"Status", "Approval Status", "State"},
}

// =============================================================================
// HEADER RESOLUTION
// =============================================================================

// Canon reduces a header to its canonical comparison form: lower-cased with
// every non-alphanumeric rune dropped.
func Canon(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FieldMap is an alias table resolved against a concrete header row.
type FieldMap map[Field]int

// Resolve matches the alias table against a header row. Resolution happens
// once per upload; fields with no matching alias are simply absent from the
// map and read as "".
func (t AliasTable) Resolve(headers []string) FieldMap {
	byCanon := make(map[string]int, len(headers))
	for i, h := range headers {
		c := Canon(h)
		if _, dup := byCanon[c]; !dup {
			byCanon[c] = i
		}
	}
	fm := make(FieldMap, len(t))
	for field, aliases := range t {
		for _, alias := range aliases {
			if idx, ok := byCanon[Canon(alias)]; ok {
				fm[field] = idx
				break
			}
		}
	}
	return fm
}

// Get reads a field from a row, returning "" when the field is unmapped or
// the row is short.
func (fm FieldMap) Get(row []string, f Field) string {
	idx, ok := fm[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// =============================================================================
// VALUE NORMALIZATION
// =============================================================================

// zero-width and BOM runes that ride along in spreadsheet exports
func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return false
}

// NormalizeEID scrubs an employee id: trims, strips internal whitespace and
// zero-width runes, and drops the ".0" suffix spreadsheets append when a
// numeric badge column round-trips through a float cell.
func NormalizeEID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || isZeroWidth(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	out = strings.TrimSuffix(out, ".0")
	return out
}

// NormalizeShiftCode upper-cases a shift cell and reduces it to its first
// two-letter run. "da (front half)" becomes "DA"; a cell with no two-letter
// run yields "".
func NormalizeShiftCode(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	runStart := -1
	for i, r := range up {
		if r >= 'A' && r <= 'Z' {
			if runStart == -1 {
				runStart = i
			}
			if i-runStart == 1 {
				return up[runStart : i+1]
			}
		} else {
			runStart = -1
		}
	}
	return ""
}

// ShiftPrefix returns the leading two-letter token of an already-normalized
// shift code. Only this prefix is significant for calendar membership.
func ShiftPrefix(code string) string {
	up := strings.ToUpper(strings.TrimSpace(code))
	if len(up) < 2 {
		return up
	}
	return up[:2]
}

// approvedStatuses are the acceptance values that activate an exception
// record. Everything else rejects the record (leniency cuts the other way
// here: an unknown status means "not approved").
var approvedStatuses = map[string]bool{
	"approved": true,
	"accepted": true,
	"accept":   true,
	"yes":      true,
	"y":        true,
	"true":     true,
}

// StatusApproved reports whether a status cell counts as approved/accepted.
// An EMPTY status is approved: several source exports only list approved
// rows and omit the column entirely.
func StatusApproved(s string) bool {
	c := Canon(s)
	if c == "" {
		return true
	}
	return approvedStatuses[c]
}
