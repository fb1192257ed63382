package importer

import (
	"fmt"

	"reassignment-service/internal/models"
	"reassignment-service/internal/workbook"
)

// Workbook sheet names, matched exactly.
const (
	SheetManagers      = "Managers"
	SheetAccounts      = "Accounts"
	SheetSellers       = "Sellers"
	SheetRelationships = "Relationship_Map"
	SheetManagerTeams  = "Manager_Team"
)

// SheetFor maps an entity type to its workbook sheet name.
func SheetFor(entity models.EntityType) string {
	switch entity {
	case models.EntityManagers:
		return SheetManagers
	case models.EntityAccounts:
		return SheetAccounts
	case models.EntitySellers:
		return SheetSellers
	case models.EntityRelationships:
		return SheetRelationships
	case models.EntityManagerTeams:
		return SheetManagerTeams
	}
	return ""
}

// Column contracts per entity, keyed by normalized header. Required columns
// must be present; expected = required + optional, and anything outside the
// expected set is a warning only.
var requiredColumns = map[models.EntityType][]string{
	models.EntityManagers:      {"manager_name", "email"},
	models.EntityAccounts:      {"account_name", "size", "current_division"},
	models.EntitySellers:       {"seller_name", "division", "size"},
	models.EntityRelationships: {"account_name", "seller_name"},
	models.EntityManagerTeams:  {"seller_name", "manager_email"},
}

var optionalColumns = map[models.EntityType][]string{
	models.EntityManagers: {},
	models.EntityAccounts: {
		"industry", "tier", "type", "state", "city", "country",
		"revenue_esg", "revenue_gdt", "revenue_gvc", "revenue_msg_us",
	},
	models.EntitySellers: {
		"city", "state", "country", "hire_date", "seniority",
		"manager_email", "book_finalized",
	},
	models.EntityRelationships: {"status"},
	models.EntityManagerTeams:  {"is_primary"},
}

// ValidationResult reports schema-level problems for one or more sheets.
// Errors make the sheet unimportable; warnings do not.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) addError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

func (r *ValidationResult) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *ValidationResult) merge(other ValidationResult) {
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ValidateSheet checks one entity's sheet: presence, data rows, required and
// unexpected columns, and the location reference table. A missing or empty
// sheet is a hard error, except the Managers sheet in add mode where a
// header-only sheet only warns (managers may already exist).
func ValidateSheet(wb *workbook.Workbook, entity models.EntityType, mode models.ImportMode) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}
	sheet := SheetFor(entity)

	if !wb.HasSheet(sheet) {
		result.addError(fmt.Sprintf("sheet %q: missing", sheet))
		return result
	}

	rows := wb.Rows(sheet)
	if len(rows) == 0 {
		if entity == models.EntityManagers && mode == models.ImportModeAdd {
			result.addWarning(fmt.Sprintf("sheet %q: no data rows, managers left as-is", sheet))
		} else {
			result.addError(fmt.Sprintf("sheet %q: needs a header row and at least one data row", sheet))
		}
		return result
	}

	headers := wb.Headers(sheet)
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		if h != "" {
			present[h] = true
		}
	}

	expected := make(map[string]bool)
	for _, c := range requiredColumns[entity] {
		expected[c] = true
		if !present[c] {
			result.addError(fmt.Sprintf("sheet %q: missing required column %q", sheet, c))
		}
	}
	for _, c := range optionalColumns[entity] {
		expected[c] = true
	}
	for _, h := range headers {
		if h != "" && !expected[h] {
			result.addWarning(fmt.Sprintf("sheet %q: unexpected column %q ignored", sheet, h))
		}
	}

	if expected["country"] || expected["state"] {
		for _, row := range rows {
			if c := row["country"]; !IsKnownCountry(c) {
				result.addWarning(fmt.Sprintf("sheet %q row %d: unknown country %q", sheet, row.RowNumber(), c))
			}
			if s := row["state"]; !IsKnownState(s) {
				result.addWarning(fmt.Sprintf("sheet %q row %d: unknown state %q", sheet, row.RowNumber(), s))
			}
		}
	}

	return result
}

// ValidateWorkbook validates every entity sheet that is present in the
// workbook. Absent sheets skip their phase and are not an error here, but a
// workbook containing none of the known sheets is.
func ValidateWorkbook(wb *workbook.Workbook, mode models.ImportMode) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}
	found := 0
	for _, entity := range models.AllEntities {
		if !wb.HasSheet(SheetFor(entity)) {
			continue
		}
		found++
		result.merge(ValidateSheet(wb, entity, mode))
	}
	if found == 0 {
		result.addError("workbook contains no recognized sheets (expected Managers, Accounts, Sellers, Relationship_Map, Manager_Team)")
	}
	return result
}
