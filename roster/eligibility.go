/*
eligibility.go - Base scheduled-population filter

PURPOSE:
  Decides which roster rows belong on the board at all, before any exception
  processing: the right department, the right management area, and a shift
  code active on the selected date. Rows failing any predicate are dropped
  with no error; absence is not failure here.

POLICY MODES:
  Two management-area policies occur in the field and both are supported:
  - require: area must EQUAL a value (e.g. "22" selects the target group)
  - exclude: area must DIFFER from a value (e.g. "27" drops ICQA)

SEE ALSO:
  - schedule/calendar.go: the active-code set
  - board/resolve.go: exception processing over the eligible set
*/
package roster

// AreaMode selects how the management-area predicate is evaluated.
type AreaMode string

const (
	AreaRequire AreaMode = "require"
	AreaExclude AreaMode = "exclude"
)

// Policy configures the eligibility filter.
type Policy struct {
	// Departments is the allow-list of recognized department ids.
	Departments []string

	// AreaMode + AreaValue form the management-area predicate.
	AreaMode  AreaMode
	AreaValue string
}

// DefaultPolicy matches the primary observed configuration: the two target
// department ids with management area 22 required.
func DefaultPolicy() Policy {
	return Policy{
		Departments: []string{"1211070", "1299070"},
		AreaMode:    AreaRequire,
		AreaValue:   "22",
	}
}

func (p Policy) departmentOK(dept string) bool {
	for _, d := range p.Departments {
		if dept == d {
			return true
		}
	}
	return false
}

func (p Policy) areaOK(area string) bool {
	switch p.AreaMode {
	case AreaExclude:
		return area != p.AreaValue
	default:
		return area == p.AreaValue
	}
}

// Eligible filters roster rows down to the base scheduled population for a
// date: recognized department, matching management area, and a shift-code
// prefix that is active on the day.
func Eligible(rows []EmployeeRecord, activeCodes map[string]bool, p Policy) []EmployeeRecord {
	var out []EmployeeRecord
	for _, r := range rows {
		if !p.departmentOK(r.Department) {
			continue
		}
		if !p.areaOK(r.ManagementArea) {
			continue
		}
		if !activeCodes[ShiftPrefix(r.ShiftCode)] {
			continue
		}
		out = append(out, r)
	}
	return out
}
