package importer

import "strings"

// Values exempted from the country/state reference check. These appear in
// real workbooks as deliberate placeholders and must not generate warnings.
var referenceExemptions = map[string]bool{
	"n/a":         true,
	"no data":     true,
	"wi":          true,
	"distributed": true,
}

// knownCountries is the reference set for the Country column, keyed lowercase.
var knownCountries = map[string]bool{
	"united states":        true,
	"usa":                  true,
	"us":                   true,
	"canada":               true,
	"mexico":               true,
	"united kingdom":       true,
	"uk":                   true,
	"ireland":              true,
	"germany":              true,
	"france":               true,
	"spain":                true,
	"portugal":             true,
	"italy":                true,
	"netherlands":          true,
	"belgium":              true,
	"switzerland":          true,
	"austria":              true,
	"poland":               true,
	"czech republic":       true,
	"sweden":               true,
	"norway":               true,
	"denmark":              true,
	"finland":              true,
	"india":                true,
	"china":                true,
	"japan":                true,
	"south korea":          true,
	"singapore":            true,
	"malaysia":             true,
	"philippines":          true,
	"australia":            true,
	"new zealand":          true,
	"brazil":               true,
	"argentina":            true,
	"chile":                true,
	"colombia":             true,
	"costa rica":           true,
	"israel":               true,
	"united arab emirates": true,
	"south africa":         true,
}

// knownStates is the reference set for the State column: US state and
// Canadian province codes, keyed lowercase.
var knownStates = map[string]bool{
	"al": true, "ak": true, "az": true, "ar": true, "ca": true,
	"co": true, "ct": true, "de": true, "fl": true, "ga": true,
	"hi": true, "id": true, "il": true, "in": true, "ia": true,
	"ks": true, "ky": true, "la": true, "me": true, "md": true,
	"ma": true, "mi": true, "mn": true, "ms": true, "mo": true,
	"mt": true, "ne": true, "nv": true, "nh": true, "nj": true,
	"nm": true, "ny": true, "nc": true, "nd": true, "oh": true,
	"ok": true, "or": true, "pa": true, "ri": true, "sc": true,
	"sd": true, "tn": true, "tx": true, "ut": true, "vt": true,
	"va": true, "wa": true, "wv": true, "wy": true, "dc": true,
	"ab": true, "bc": true, "mb": true, "nb": true, "nl": true,
	"ns": true, "nt": true, "nu": true, "on": true, "pe": true,
	"qc": true, "sk": true, "yt": true,
}

// IsKnownCountry reports whether value is in the country reference table or
// exempted from the check. Empty values are always fine.
func IsKnownCountry(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || referenceExemptions[v] {
		return true
	}
	return knownCountries[v]
}

// IsKnownState reports whether value is a known state/province code or
// exempted from the check.
func IsKnownState(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || referenceExemptions[v] {
		return true
	}
	return knownStates[v]
}
