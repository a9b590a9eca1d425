package universe

import "sort"

// Filter returns the securities whose sub-industry is not excluded and whose
// ESG score is strictly greater than the threshold. Administrative fields
// (CIK, date added, founded) are cleared from the output rows.
//
// Filter is pure and idempotent: filtering an already-filtered universe with
// the same parameters returns the same set.
func Filter(all []Security, p FilterParams) []Security {
	excluded := make(map[string]bool, len(p.ExcludeSubIndustries))
	for _, s := range p.ExcludeSubIndustries {
		excluded[s] = true
	}

	out := make([]Security, 0, len(all))
	for _, s := range all {
		if excluded[s.SubIndustry] {
			continue
		}
		if !(s.ESGScore > p.MinESGScore) {
			continue
		}
		s.CIK = ""
		s.DateAdded = ""
		s.Founded = ""
		out = append(out, s)
	}
	return out
}

// Symbols extracts the ticker list from a universe slice, preserving order.
func Symbols(secs []Security) []string {
	syms := make([]string, len(secs))
	for i, s := range secs {
		syms[i] = s.Symbol
	}
	return syms
}

// SubIndustries returns the sorted distinct sub-industry labels, for the
// exclusion multi-select.
func SubIndustries(secs []Security) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range secs {
		if s.SubIndustry == "" || seen[s.SubIndustry] {
			continue
		}
		seen[s.SubIndustry] = true
		out = append(out, s.SubIndustry)
	}
	sort.Strings(out)
	return out
}
