package exporter

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"reassignment-service/internal/models"
	"reassignment-service/internal/repository"
)

type fixture struct {
	db        *gorm.DB
	assembler *Assembler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserProfile{},
		&models.Manager{},
		&models.Account{},
		&models.AccountRevenue{},
		&models.Seller{},
		&models.Relationship{},
		&models.OriginalRelationship{},
		&models.ManagerTeam{},
	))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	assembler := NewAssembler(
		repository.NewAccountRepository(db),
		repository.NewSellerRepository(db),
		repository.NewManagerRepository(db),
		repository.NewRelationshipRepository(db),
		logger,
	)
	return &fixture{db: db, assembler: assembler}
}

func (f *fixture) seedBook(t *testing.T) (models.Account, models.Seller) {
	t.Helper()
	profile := models.UserProfile{Email: "dana.reeve@company.com", FullName: "Dana Reeve"}
	require.NoError(t, f.db.Create(&profile).Error)
	manager := models.Manager{ProfileID: profile.ID, Name: "Dana Reeve"}
	require.NoError(t, f.db.Create(&manager).Error)

	account := models.Account{Name: "Acme", Size: models.SizeEnterprise, CurrentDivision: models.DivisionESG}
	require.NoError(t, f.db.Create(&account).Error)
	require.NoError(t, f.db.Create(&models.AccountRevenue{AccountID: account.ID, RevenueESG: 100}).Error)

	orphan := models.Account{Name: "Globex", Size: models.SizeMidmarket, CurrentDivision: models.DivisionGDT}
	require.NoError(t, f.db.Create(&orphan).Error)

	seller := models.Seller{
		Name: "J. Doe", Division: models.DivisionESG, Size: models.SizeEnterprise,
		Seniority: models.SeniorityJunior, ManagerID: &manager.ID,
	}
	require.NoError(t, f.db.Create(&seller).Error)

	require.NoError(t, f.db.Create(&models.Relationship{
		AccountID: account.ID, SellerID: seller.ID, Status: models.StatusMustKeep,
	}).Error)
	require.NoError(t, f.db.Create(&models.ManagerTeam{
		SellerID: seller.ID, ManagerID: manager.ID, IsPrimary: true,
	}).Error)
	return account, seller
}

func sheetRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestExportComprehensiveOneRowPerPairing(t *testing.T) {
	f := newFixture(t)
	f.seedBook(t)

	var buf bytes.Buffer
	require.NoError(t, f.assembler.ExportComprehensive(context.Background(), &buf))

	rows := sheetRows(t, &buf, "Book_Export")
	require.Len(t, rows, 3, "header + Acme pairing + orphan Globex")
	assert.Equal(t, "Account Name", rows[0][0])

	byName := map[string][]string{}
	for _, row := range rows[1:] {
		byName[row[0]] = row
	}

	acme := byName["Acme"]
	require.NotNil(t, acme)
	assert.Equal(t, "100", acme[9])
	assert.Equal(t, "J. Doe", acme[13])
	assert.Equal(t, "must_keep", acme[15])
	assert.Equal(t, "Dana Reeve", acme[16])
	assert.Equal(t, "dana.reeve@company.com", acme[17])

	// Accounts with no relationship get blank seller/manager columns.
	globex := byName["Globex"]
	require.NotNil(t, globex)
	assert.LessOrEqual(t, len(globex), 13)
}

func TestExportBackupRoundTripShape(t *testing.T) {
	f := newFixture(t)
	f.seedBook(t)

	var buf bytes.Buffer
	require.NoError(t, f.assembler.ExportBackup(context.Background(), &buf))

	x, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer x.Close()
	assert.ElementsMatch(t,
		[]string{"Managers", "Accounts", "Sellers", "Relationship_Map", "Manager_Team", "Instructions"},
		x.GetSheetList(),
	)

	managers := sheetRows(t, bytes.NewBufferString(buf.String()), "Managers")
	require.Len(t, managers, 2)
	assert.Equal(t, []string{"Manager Name", "Email"}, managers[0])
	assert.Equal(t, []string{"Dana Reeve", "dana.reeve@company.com"}, managers[1])

	rels := sheetRows(t, bytes.NewBufferString(buf.String()), "Relationship_Map")
	require.Len(t, rels, 2)
	assert.Equal(t, []string{"Acme", "J. Doe", "must_keep"}, rels[1])

	teams := sheetRows(t, bytes.NewBufferString(buf.String()), "Manager_Team")
	require.Len(t, teams, 2)
	assert.Equal(t, "J. Doe", teams[1][0])
	assert.Equal(t, "dana.reeve@company.com", teams[1][1])
}

func TestExportBackupIncludesSnapshotsAsOriginal(t *testing.T) {
	f := newFixture(t)
	account, seller := f.seedBook(t)
	require.NoError(t, f.db.Delete(&models.Relationship{}, "account_id = ?", account.ID).Error)
	require.NoError(t, f.db.Create(&models.OriginalRelationship{
		AccountID: account.ID, SellerID: seller.ID,
	}).Error)

	var buf bytes.Buffer
	require.NoError(t, f.assembler.ExportBackup(context.Background(), &buf))

	rels := sheetRows(t, &buf, "Relationship_Map")
	require.Len(t, rels, 2)
	assert.Equal(t, []string{"Acme", "J. Doe", "original"}, rels[1])
}

func TestWriteImportTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteImportTemplate(&buf))

	x, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer x.Close()

	assert.ElementsMatch(t,
		[]string{"Managers", "Accounts", "Sellers", "Relationship_Map", "Manager_Team", "Instructions"},
		x.GetSheetList(),
	)

	rows, err := x.GetRows("Accounts")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header + example row")
	assert.Equal(t, "Account Name *", rows[0][0])
	assert.Equal(t, "Acme", rows[1][0])
}
