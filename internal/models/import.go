package models

import "time"

// EntityType identifies one of the five imported/exported entity kinds.
type EntityType string

const (
	EntityManagers      EntityType = "managers"
	EntityAccounts      EntityType = "accounts"
	EntitySellers       EntityType = "sellers"
	EntityRelationships EntityType = "relationships"
	EntityManagerTeams  EntityType = "manager_teams"
)

// AllEntities lists entity types in their import dependency order.
var AllEntities = []EntityType{
	EntityManagers,
	EntityAccounts,
	EntitySellers,
	EntityRelationships,
	EntityManagerTeams,
}

// ImportMode selects the reconciliation policy for a run.
type ImportMode string

const (
	// ImportModeReplace deletes every existing row of each imported table
	// before writing the new rows. Destructive and irreversible.
	ImportModeReplace ImportMode = "replace"
	// ImportModeAdd only inserts rows absent from the existing tables.
	ImportModeAdd ImportMode = "add"
)

// EntityResult is the per-entity outcome of a run. Callers must inspect the
// error lists; the coordinator never reduces a run to a single pass/fail.
type EntityResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ImportSummary is the coordinator's final structured result.
type ImportSummary struct {
	Mode         ImportMode                   `json:"mode"`
	FileName     string                       `json:"fileName"`
	FileSize     int64                        `json:"fileSize"`
	LockAcquired bool                         `json:"lockAcquired"`
	Entities     map[EntityType]*EntityResult `json:"entities"`
	Warnings     []string                     `json:"warnings,omitempty"`
	StartedAt    time.Time                    `json:"startedAt"`
	Duration     time.Duration                `json:"duration"`
}

// Entity returns (allocating if needed) the result bucket for an entity type.
func (s *ImportSummary) Entity(t EntityType) *EntityResult {
	if s.Entities == nil {
		s.Entities = make(map[EntityType]*EntityResult)
	}
	r, ok := s.Entities[t]
	if !ok {
		r = &EntityResult{Errors: []string{}}
		s.Entities[t] = r
	}
	return r
}

// TotalImported sums imported rows across entities.
func (s *ImportSummary) TotalImported() int {
	total := 0
	for _, r := range s.Entities {
		total += r.Imported
	}
	return total
}

// TotalErrors sums collected errors across entities.
func (s *ImportSummary) TotalErrors() int {
	total := 0
	for _, r := range s.Entities {
		total += len(r.Errors)
	}
	return total
}

// ImportTemplateColumn defines a column in the import template workbook.
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, date, email, boolean
	Example     string `json:"example"`
}

// ImportTemplateSheet defines one sheet of the import template workbook.
type ImportTemplateSheet struct {
	Sheet   string                 `json:"sheet"`
	Entity  EntityType             `json:"entity"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportTemplate returns the full five-sheet template definition.
func ImportTemplate() []ImportTemplateSheet {
	return []ImportTemplateSheet{
		{
			Sheet:  "Managers",
			Entity: EntityManagers,
			Columns: []ImportTemplateColumn{
				{Name: "Manager Name", Description: "Manager's display name", Required: true, Type: "string", Example: "Dana Reeve"},
				{Name: "Email", Description: "Profile email - the profile must exist", Required: true, Type: "email", Example: "dana.reeve@company.com"},
			},
		},
		{
			Sheet:  "Accounts",
			Entity: EntityAccounts,
			Columns: []ImportTemplateColumn{
				{Name: "Account Name", Description: "Account name (unique)", Required: true, Type: "string", Example: "Acme"},
				{Name: "Size", Description: "Size class (enterprise, midmarket, no_data)", Required: true, Type: "string", Example: "enterprise"},
				{Name: "Current Division", Description: "Division (ESG, GDT, GVC, MSG_US, MIXED)", Required: true, Type: "string", Example: "ESG"},
				{Name: "Industry", Description: "Industry label", Required: false, Type: "string", Example: "Manufacturing"},
				{Name: "Tier", Description: "Account tier", Required: false, Type: "string", Example: "1"},
				{Name: "Type", Description: "Account type", Required: false, Type: "string", Example: "direct"},
				{Name: "State", Description: "State/province code", Required: false, Type: "string", Example: "CA"},
				{Name: "City", Description: "City name", Required: false, Type: "string", Example: "San Jose"},
				{Name: "Country", Description: "Country name", Required: false, Type: "string", Example: "United States"},
				{Name: "Revenue ESG", Description: "ESG division revenue", Required: false, Type: "number", Example: "100"},
				{Name: "Revenue GDT", Description: "GDT division revenue", Required: false, Type: "number", Example: "0"},
				{Name: "Revenue GVC", Description: "GVC division revenue", Required: false, Type: "number", Example: "0"},
				{Name: "Revenue MSG US", Description: "MSG_US division revenue", Required: false, Type: "number", Example: "0"},
			},
		},
		{
			Sheet:  "Sellers",
			Entity: EntitySellers,
			Columns: []ImportTemplateColumn{
				{Name: "Seller Name", Description: "Seller name (unique)", Required: true, Type: "string", Example: "J. Doe"},
				{Name: "Division", Description: "Division (ESG, GDT, GVC, MSG_US, MIXED)", Required: true, Type: "string", Example: "ESG"},
				{Name: "Size", Description: "Size class (enterprise, midmarket, no_data)", Required: true, Type: "string", Example: "enterprise"},
				{Name: "City", Description: "City name", Required: false, Type: "string", Example: "Chicago"},
				{Name: "State", Description: "State/province code", Required: false, Type: "string", Example: "IL"},
				{Name: "Country", Description: "Country name", Required: false, Type: "string", Example: "United States"},
				{Name: "Hire Date", Description: "Hire date (YYYY-MM-DD) - tenure is derived", Required: false, Type: "date", Example: "2021-04-01"},
				{Name: "Seniority", Description: "junior or senior", Required: false, Type: "string", Example: "senior"},
				{Name: "Manager Email", Description: "Primary manager's profile email", Required: false, Type: "email", Example: "dana.reeve@company.com"},
				{Name: "Book Finalized", Description: "true/false", Required: false, Type: "boolean", Example: "false"},
			},
		},
		{
			Sheet:  "Relationship_Map",
			Entity: EntityRelationships,
			Columns: []ImportTemplateColumn{
				{Name: "Account Name", Description: "Account name - must exist", Required: true, Type: "string", Example: "Acme"},
				{Name: "Seller Name", Description: "Seller name - must exist", Required: true, Type: "string", Example: "J. Doe"},
				{Name: "Status", Description: "Blank or 'original' records the baseline snapshot; otherwise must_keep, for_discussion, to_be_peeled", Required: false, Type: "string", Example: "original"},
			},
		},
		{
			Sheet:  "Manager_Team",
			Entity: EntityManagerTeams,
			Columns: []ImportTemplateColumn{
				{Name: "Seller Name", Description: "Seller name - must exist", Required: true, Type: "string", Example: "J. Doe"},
				{Name: "Manager Email", Description: "Manager's profile email - must exist", Required: true, Type: "email", Example: "dana.reeve@company.com"},
				{Name: "Is Primary", Description: "true/false (defaults to true)", Required: false, Type: "boolean", Example: "true"},
			},
		},
	}
}
