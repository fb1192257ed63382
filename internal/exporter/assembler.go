// Package exporter builds workbooks from the store: the comprehensive
// account-centric export, the per-table backup export, and the blank import
// template.
package exporter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reassignment-service/internal/models"
	"reassignment-service/internal/repository"
	"reassignment-service/internal/workbook"
)

const (
	pageSize = 1000
	maxPages = 100
)

// Assembler reads entity tables with the paginated full-scan discipline and
// flattens them into workbook sheets.
type Assembler struct {
	accounts repository.AccountRepository
	sellers  repository.SellerRepository
	managers repository.ManagerRepository
	rels     repository.RelationshipRepository
	logger   *logrus.Entry
}

func NewAssembler(
	accounts repository.AccountRepository,
	sellers repository.SellerRepository,
	managers repository.ManagerRepository,
	rels repository.RelationshipRepository,
	logger *logrus.Logger,
) *Assembler {
	return &Assembler{
		accounts: accounts,
		sellers:  sellers,
		managers: managers,
		rels:     rels,
		logger:   logger.WithField("component", "export-assembler"),
	}
}

func fetchAll[T any](fetch func(offset, limit int) ([]T, error)) ([]T, error) {
	var all []T
	for page := 0; page < maxPages; page++ {
		rows, err := fetch(page*pageSize, pageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			return all, nil
		}
	}
	return all, fmt.Errorf("aborted after %d pages (possible runaway scan)", maxPages)
}

// tables bundles full reads of every entity the exports join across.
type tables struct {
	accounts  []models.Account
	sellers   []models.Seller
	managers  []models.Manager
	profiles  []models.UserProfile
	active    []models.Relationship
	snapshots []models.OriginalRelationship
	teams     []models.ManagerTeam
}

func (a *Assembler) load(ctx context.Context) (*tables, error) {
	t := &tables{}
	var err error
	if t.accounts, err = fetchAll(func(o, l int) ([]models.Account, error) {
		return a.accounts.FetchPageWithRevenue(ctx, o, l)
	}); err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	if t.sellers, err = fetchAll(func(o, l int) ([]models.Seller, error) {
		return a.sellers.FetchPage(ctx, o, l)
	}); err != nil {
		return nil, fmt.Errorf("loading sellers: %w", err)
	}
	if t.managers, err = fetchAll(func(o, l int) ([]models.Manager, error) {
		return a.managers.FetchPage(ctx, o, l)
	}); err != nil {
		return nil, fmt.Errorf("loading managers: %w", err)
	}
	if t.profiles, err = fetchAll(func(o, l int) ([]models.UserProfile, error) {
		return a.managers.FetchProfilesPage(ctx, o, l)
	}); err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	if t.active, err = fetchAll(func(o, l int) ([]models.Relationship, error) {
		return a.rels.FetchActivePage(ctx, o, l)
	}); err != nil {
		return nil, fmt.Errorf("loading relationships: %w", err)
	}
	if t.snapshots, err = fetchAll(func(o, l int) ([]models.OriginalRelationship, error) {
		return a.rels.FetchSnapshotPage(ctx, o, l)
	}); err != nil {
		return nil, fmt.Errorf("loading relationship snapshots: %w", err)
	}
	if t.teams, err = fetchAll(func(o, l int) ([]models.ManagerTeam, error) {
		return a.rels.FetchTeamPage(ctx, o, l)
	}); err != nil {
		return nil, fmt.Errorf("loading manager teams: %w", err)
	}
	return t, nil
}

// ExportComprehensive writes the account-centric export: one row per active
// relationship or baseline snapshot, and one row with blank seller/manager
// columns for each account that has neither.
func (a *Assembler) ExportComprehensive(ctx context.Context, w io.Writer) error {
	t, err := a.load(ctx)
	if err != nil {
		return err
	}

	sellerByID := make(map[uuid.UUID]models.Seller, len(t.sellers))
	for _, s := range t.sellers {
		sellerByID[s.ID] = s
	}
	managerByID := make(map[uuid.UUID]models.Manager, len(t.managers))
	for _, m := range t.managers {
		managerByID[m.ID] = m
	}
	profileByID := make(map[uuid.UUID]models.UserProfile, len(t.profiles))
	for _, p := range t.profiles {
		profileByID[p.ID] = p
	}

	type pairing struct {
		sellerID uuid.UUID
		status   models.RelationshipStatus
	}
	pairsByAccount := make(map[uuid.UUID][]pairing)
	for _, rel := range t.active {
		pairsByAccount[rel.AccountID] = append(pairsByAccount[rel.AccountID], pairing{rel.SellerID, rel.Status})
	}
	for _, snap := range t.snapshots {
		pairsByAccount[snap.AccountID] = append(pairsByAccount[snap.AccountID], pairing{snap.SellerID, models.StatusOriginal})
	}

	headers := []string{
		"Account Name", "Industry", "Size", "Tier", "Type",
		"State", "City", "Country", "Current Division",
		"Revenue ESG", "Revenue GDT", "Revenue GVC", "Revenue MSG US",
		"Seller Name", "Seller Division", "Status",
		"Manager Name", "Manager Email",
	}

	var rows [][]interface{}
	for _, account := range t.accounts {
		base := []interface{}{
			account.Name,
			deref(account.Industry),
			string(account.Size),
			deref(account.Tier),
			deref(account.AccountType),
			deref(account.State),
			deref(account.City),
			deref(account.Country),
			string(account.CurrentDivision),
		}
		if account.Revenue != nil {
			base = append(base, account.Revenue.RevenueESG, account.Revenue.RevenueGDT,
				account.Revenue.RevenueGVC, account.Revenue.RevenueMSGUS)
		} else {
			base = append(base, nil, nil, nil, nil)
		}

		pairs := pairsByAccount[account.ID]
		if len(pairs) == 0 {
			rows = append(rows, append(append([]interface{}{}, base...), nil, nil, nil, nil, nil))
			continue
		}
		for _, p := range pairs {
			row := append([]interface{}{}, base...)
			seller, ok := sellerByID[p.sellerID]
			if !ok {
				row = append(row, nil, nil, string(p.status), nil, nil)
				rows = append(rows, row)
				continue
			}
			row = append(row, seller.Name, string(seller.Division), string(p.status))
			managerName, managerEmail := a.managerColumns(seller.ManagerID, managerByID, profileByID)
			row = append(row, managerName, managerEmail)
			rows = append(rows, row)
		}
	}

	builder := workbook.NewBuilder()
	if err := builder.AddSheet("Book_Export", headers, rows); err != nil {
		return err
	}
	if err := addInstructionsSheet(builder, "Comprehensive book export", []string{
		"One row per account-seller pairing; accounts without a seller have blank seller columns.",
		"Status 'original' marks the pre-reassignment baseline snapshot.",
		"Revenue columns are per division, in the store's currency units.",
	}); err != nil {
		return err
	}
	builder.SetActiveSheet("Book_Export")

	a.logger.WithField("rows", len(rows)).Info("Comprehensive export assembled")
	return builder.WriteTo(w)
}

func (a *Assembler) managerColumns(managerID *uuid.UUID, managers map[uuid.UUID]models.Manager, profiles map[uuid.UUID]models.UserProfile) (interface{}, interface{}) {
	if managerID == nil {
		return nil, nil
	}
	manager, ok := managers[*managerID]
	if !ok {
		return nil, nil
	}
	profile, ok := profiles[manager.ProfileID]
	if !ok {
		return manager.Name, nil
	}
	return manager.Name, profile.Email
}

// ExportBackup writes each entity table as its own sheet, in the same shape
// the import reads, so the file round-trips through a replace import.
func (a *Assembler) ExportBackup(ctx context.Context, w io.Writer) error {
	t, err := a.load(ctx)
	if err != nil {
		return err
	}

	accountByID := make(map[uuid.UUID]string, len(t.accounts))
	for _, acc := range t.accounts {
		accountByID[acc.ID] = acc.Name
	}
	sellerByID := make(map[uuid.UUID]models.Seller, len(t.sellers))
	for _, s := range t.sellers {
		sellerByID[s.ID] = s
	}
	profileByID := make(map[uuid.UUID]models.UserProfile, len(t.profiles))
	for _, p := range t.profiles {
		profileByID[p.ID] = p
	}
	managerByID := make(map[uuid.UUID]models.Manager, len(t.managers))
	managerEmail := make(map[uuid.UUID]string, len(t.managers))
	for _, m := range t.managers {
		managerByID[m.ID] = m
		if p, ok := profileByID[m.ProfileID]; ok {
			managerEmail[m.ID] = p.Email
		}
	}

	builder := workbook.NewBuilder()

	managerRows := make([][]interface{}, 0, len(t.managers))
	for _, m := range t.managers {
		managerRows = append(managerRows, []interface{}{m.Name, managerEmail[m.ID]})
	}
	if err := builder.AddSheet("Managers", []string{"Manager Name", "Email"}, managerRows); err != nil {
		return err
	}

	accountRows := make([][]interface{}, 0, len(t.accounts))
	for _, acc := range t.accounts {
		row := []interface{}{
			acc.Name, string(acc.Size), string(acc.CurrentDivision),
			deref(acc.Industry), deref(acc.Tier), deref(acc.AccountType),
			deref(acc.State), deref(acc.City), deref(acc.Country),
		}
		if acc.Revenue != nil {
			row = append(row, acc.Revenue.RevenueESG, acc.Revenue.RevenueGDT,
				acc.Revenue.RevenueGVC, acc.Revenue.RevenueMSGUS)
		} else {
			row = append(row, nil, nil, nil, nil)
		}
		accountRows = append(accountRows, row)
	}
	if err := builder.AddSheet("Accounts", []string{
		"Account Name", "Size", "Current Division", "Industry", "Tier", "Type",
		"State", "City", "Country",
		"Revenue ESG", "Revenue GDT", "Revenue GVC", "Revenue MSG US",
	}, accountRows); err != nil {
		return err
	}

	sellerRows := make([][]interface{}, 0, len(t.sellers))
	for _, s := range t.sellers {
		var hireDate interface{}
		if s.HireDate != nil {
			hireDate = s.HireDate.Format("2006-01-02")
		}
		var email interface{}
		if s.ManagerID != nil {
			if e, ok := managerEmail[*s.ManagerID]; ok {
				email = e
			}
		}
		sellerRows = append(sellerRows, []interface{}{
			s.Name, string(s.Division), string(s.Size),
			deref(s.City), deref(s.State), deref(s.Country),
			hireDate, string(s.Seniority), email, s.BookFinalized,
		})
	}
	if err := builder.AddSheet("Sellers", []string{
		"Seller Name", "Division", "Size", "City", "State", "Country",
		"Hire Date", "Seniority", "Manager Email", "Book Finalized",
	}, sellerRows); err != nil {
		return err
	}

	relRows := make([][]interface{}, 0, len(t.active)+len(t.snapshots))
	for _, rel := range t.active {
		seller, ok := sellerByID[rel.SellerID]
		if !ok {
			continue
		}
		relRows = append(relRows, []interface{}{accountByID[rel.AccountID], seller.Name, string(rel.Status)})
	}
	for _, snap := range t.snapshots {
		seller, ok := sellerByID[snap.SellerID]
		if !ok {
			continue
		}
		relRows = append(relRows, []interface{}{accountByID[snap.AccountID], seller.Name, string(models.StatusOriginal)})
	}
	if err := builder.AddSheet("Relationship_Map", []string{"Account Name", "Seller Name", "Status"}, relRows); err != nil {
		return err
	}

	teamRows := make([][]interface{}, 0, len(t.teams))
	for _, team := range t.teams {
		seller, ok := sellerByID[team.SellerID]
		if !ok {
			continue
		}
		teamRows = append(teamRows, []interface{}{seller.Name, managerEmail[team.ManagerID], team.IsPrimary})
	}
	if err := builder.AddSheet("Manager_Team", []string{"Seller Name", "Manager Email", "Is Primary"}, teamRows); err != nil {
		return err
	}

	if err := addInstructionsSheet(builder, "Full book backup", []string{
		"One sheet per entity table, in the shape the import reads.",
		"Re-import this file in replace mode to restore the book to this state.",
		"Rows referencing sellers that no longer exist are omitted.",
	}); err != nil {
		return err
	}
	builder.SetActiveSheet("Managers")

	a.logger.WithFields(logrus.Fields{
		"accounts": len(accountRows),
		"sellers":  len(sellerRows),
	}).Info("Backup export assembled")
	return builder.WriteTo(w)
}

// WriteImportTemplate writes a blank workbook with every import sheet's
// header row, one example row, and an Instructions sheet.
func WriteImportTemplate(w io.Writer) error {
	builder := workbook.NewBuilder()

	for _, sheet := range models.ImportTemplate() {
		headers := make([]string, len(sheet.Columns))
		example := make([]interface{}, len(sheet.Columns))
		for i, col := range sheet.Columns {
			header := col.Name
			if col.Required {
				header += " *"
			}
			headers[i] = header
			example[i] = col.Example
		}
		if err := builder.AddSheet(sheet.Sheet, headers, [][]interface{}{example}); err != nil {
			return err
		}
	}

	lines := []string{
		"Columns marked with * are required.",
		"Sheets may be omitted; an absent sheet skips that part of the import.",
		"Row 2 of each sheet is an example. Replace it with real data.",
		"Import modes: 'replace' deletes existing rows first, 'add' only inserts new ones.",
	}
	for _, sheet := range models.ImportTemplate() {
		for _, col := range sheet.Columns {
			lines = append(lines, fmt.Sprintf("%s / %s: %s", sheet.Sheet, col.Name, col.Description))
		}
	}
	if err := addInstructionsSheet(builder, "Book import template", lines); err != nil {
		return err
	}
	builder.SetActiveSheet("Managers")

	return builder.WriteTo(w)
}

func addInstructionsSheet(builder *workbook.Builder, title string, lines []string) error {
	if err := builder.SetCell("Instructions", "A1", title); err != nil {
		return err
	}
	if err := builder.SetCell("Instructions", "A2", fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04"))); err != nil {
		return err
	}
	for i, line := range lines {
		cell := fmt.Sprintf("A%d", i+4)
		if err := builder.SetCell("Instructions", cell, line); err != nil {
			return err
		}
	}
	builder.SetColWidth("Instructions", "A", "A", 90)
	return nil
}

func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
