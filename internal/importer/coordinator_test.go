package importer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"reassignment-service/internal/models"
	"reassignment-service/internal/repository"
)

// sheetDef is a sheet's raw cells, header row first.
type sheetDef struct {
	name string
	rows [][]interface{}
}

func workbookBytes(t *testing.T, sheets ...sheetDef) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	for i, sheet := range sheets {
		if i == 0 {
			f.SetSheetName("Sheet1", sheet.name)
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}
		for r, row := range sheet.rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(sheet.name, cell, value))
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

type stubViews struct {
	refreshed int
}

func (s *stubViews) RefreshDerivedViews(ctx context.Context) error {
	s.refreshed++
	return nil
}

type testEnv struct {
	db          *gorm.DB
	coordinator *Coordinator
	locks       repository.LockRepository
	audits      repository.AuditRepository
	views       *stubViews
}

func newTestEnv(t *testing.T) *testEnv {
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
		&models.ImportLock{},
		&models.ImportAuditLog{},
		&models.SellerChatBackup{},
		&repository.SellerChat{},
	))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	views := &stubViews{}
	locks := repository.NewLockRepository(db)
	audits := repository.NewAuditRepository(db)
	coordinator := NewCoordinator(
		repository.NewAccountRepository(db),
		repository.NewSellerRepository(db),
		repository.NewManagerRepository(db),
		repository.NewRelationshipRepository(db),
		locks, views, audits, logger,
	)
	coordinator.SetLimiter(rate.NewLimiter(rate.Inf, 1))

	return &testEnv{db: db, coordinator: coordinator, locks: locks, audits: audits, views: views}
}

func (e *testEnv) seedProfile(t *testing.T, email, name string) models.UserProfile {
	t.Helper()
	profile := models.UserProfile{Email: email, FullName: name}
	require.NoError(t, e.db.Create(&profile).Error)
	return profile
}

func TestImportEndToEndAcmeScenario(t *testing.T) {
	env := newTestEnv(t)
	buf := workbookBytes(t,
		sheetDef{name: "Accounts", rows: [][]interface{}{
			{"Account Name", "Size", "Current Division", "Revenue ESG"},
			{"Acme", "enterprise", "ESG", 100},
		}},
		sheetDef{name: "Sellers", rows: [][]interface{}{
			{"Seller Name", "Division", "Size"},
			{"J. Doe", "ESG", "enterprise"},
		}},
		sheetDef{name: "Relationship_Map", rows: [][]interface{}{
			{"Account Name", "Seller Name", "Status"},
			{"Acme", "J. Doe", "original"},
		}},
	)

	summary, err := env.coordinator.Run(context.Background(), buf, Options{
		Mode:     models.ImportModeReplace,
		FileName: "book.xlsx",
	})
	require.NoError(t, err)

	accounts := summary.Entity(models.EntityAccounts)
	assert.Equal(t, 1, accounts.Imported)
	assert.Empty(t, accounts.Errors)
	sellers := summary.Entity(models.EntitySellers)
	assert.Equal(t, 1, sellers.Imported)
	assert.Empty(t, sellers.Errors)
	rels := summary.Entity(models.EntityRelationships)
	assert.Equal(t, 0, rels.Imported)
	assert.Empty(t, rels.Errors)

	var account models.Account
	require.NoError(t, env.db.Preload("Revenue").Where("name = ?", "Acme").First(&account).Error)
	require.NotNil(t, account.Revenue)
	assert.Equal(t, float64(100), account.Revenue.RevenueESG)

	var seller models.Seller
	require.NoError(t, env.db.Where("name = ?", "J. Doe").First(&seller).Error)

	var snapshotCount, activeCount int64
	env.db.Model(&models.OriginalRelationship{}).
		Where("account_id = ? AND seller_id = ?", account.ID, seller.ID).
		Count(&snapshotCount)
	env.db.Model(&models.Relationship{}).Count(&activeCount)
	assert.Equal(t, int64(1), snapshotCount)
	assert.Equal(t, int64(0), activeCount)

	// Lock was taken for the replace run and released before views refreshed.
	assert.True(t, summary.LockAcquired)
	lock, err := env.locks.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, lock)
	assert.Equal(t, 1, env.views.refreshed)

	// One audit record for the run.
	logs, err := env.audits.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ImportModeReplace, logs[0].Mode)
	assert.Equal(t, "book.xlsx", logs[0].FileName)
}

func TestImportSnapshotAndActiveAreDisjoint(t *testing.T) {
	env := newTestEnv(t)
	buf := workbookBytes(t,
		sheetDef{name: "Accounts", rows: [][]interface{}{
			{"Account Name", "Size", "Current Division"},
			{"Acme", "enterprise", "ESG"},
			{"Globex", "midmarket", "GDT"},
		}},
		sheetDef{name: "Sellers", rows: [][]interface{}{
			{"Seller Name", "Division", "Size"},
			{"J. Doe", "ESG", "enterprise"},
		}},
		sheetDef{name: "Relationship_Map", rows: [][]interface{}{
			{"Account Name", "Seller Name", "Status"},
			{"Acme", "J. Doe", ""},
			{"Globex", "J. Doe", "must_keep"},
		}},
	)

	summary, err := env.coordinator.Run(context.Background(), buf, Options{Mode: models.ImportModeReplace})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Entity(models.EntityRelationships).Imported)

	var snapshots []models.OriginalRelationship
	var active []models.Relationship
	require.NoError(t, env.db.Find(&snapshots).Error)
	require.NoError(t, env.db.Find(&active).Error)
	require.Len(t, snapshots, 1)
	require.Len(t, active, 1)

	var acme, globex models.Account
	require.NoError(t, env.db.Where("name = ?", "Acme").First(&acme).Error)
	require.NoError(t, env.db.Where("name = ?", "Globex").First(&globex).Error)

	// Blank status routes to the snapshot table, never to active rows.
	assert.Equal(t, acme.ID, snapshots[0].AccountID)
	assert.Equal(t, globex.ID, active[0].AccountID)
	assert.Equal(t, models.StatusMustKeep, active[0].Status)
}

func TestAddModeImportIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "dana.reeve@company.com", "Dana Reeve")

	sheets := []sheetDef{
		{name: "Managers", rows: [][]interface{}{
			{"Manager Name", "Email"},
			{"Dana Reeve", "dana.reeve@company.com"},
		}},
		{name: "Accounts", rows: [][]interface{}{
			{"Account Name", "Size", "Current Division"},
			{"Acme", "enterprise", "ESG"},
		}},
		{name: "Sellers", rows: [][]interface{}{
			{"Seller Name", "Division", "Size", "Manager Email"},
			{"J. Doe", "ESG", "enterprise", "dana.reeve@company.com"},
		}},
		{name: "Relationship_Map", rows: [][]interface{}{
			{"Account Name", "Seller Name", "Status"},
			{"Acme", "J. Doe", "must_keep"},
		}},
		{name: "Manager_Team", rows: [][]interface{}{
			{"Seller Name", "Manager Email", "Is Primary"},
			{"J. Doe", "dana.reeve@company.com", true},
		}},
	}

	first, err := env.coordinator.Run(context.Background(), workbookBytes(t, sheets...), Options{Mode: models.ImportModeAdd})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Entity(models.EntityManagers).Imported)
	assert.Equal(t, 1, first.Entity(models.EntityAccounts).Imported)
	assert.Equal(t, 1, first.Entity(models.EntitySellers).Imported)

	count := func(model interface{}) int64 {
		var n int64
		env.db.Model(model).Count(&n)
		return n
	}
	baseline := []int64{
		count(&models.Manager{}), count(&models.Account{}), count(&models.Seller{}),
		count(&models.Relationship{}), count(&models.ManagerTeam{}),
	}

	second, err := env.coordinator.Run(context.Background(), workbookBytes(t, sheets...), Options{Mode: models.ImportModeAdd})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Entity(models.EntityManagers).Imported)
	assert.Equal(t, 1, second.Entity(models.EntityManagers).Skipped)
	assert.Equal(t, 0, second.Entity(models.EntityAccounts).Imported)
	assert.Equal(t, 0, second.Entity(models.EntitySellers).Imported)
	assert.Empty(t, second.Entity(models.EntityAccounts).Errors)

	after := []int64{
		count(&models.Manager{}), count(&models.Account{}), count(&models.Seller{}),
		count(&models.Relationship{}), count(&models.ManagerTeam{}),
	}
	assert.Equal(t, baseline, after)

	// The seller resolved its manager by email on the first pass.
	var seller models.Seller
	require.NoError(t, env.db.Where("name = ?", "J. Doe").First(&seller).Error)
	require.NotNil(t, seller.ManagerID)
}

func TestPhaseOrderRespectsDependencies(t *testing.T) {
	env := newTestEnv(t)
	order := env.coordinator.PhaseOrder()
	require.Equal(t, models.AllEntities, order)

	position := make(map[models.EntityType]int, len(order))
	for i, entity := range order {
		position[entity] = i
	}
	for _, p := range env.coordinator.phases() {
		for _, dep := range p.deps {
			assert.Less(t, position[dep], position[p.entity],
				"%s must run before %s", dep, p.entity)
		}
	}
}

func TestRelationshipUnknownNamesAreCollectedNotFatal(t *testing.T) {
	env := newTestEnv(t)
	buf := workbookBytes(t,
		sheetDef{name: "Accounts", rows: [][]interface{}{
			{"Account Name", "Size", "Current Division"},
			{"Acme", "enterprise", "ESG"},
		}},
		sheetDef{name: "Sellers", rows: [][]interface{}{
			{"Seller Name", "Division", "Size"},
			{"J. Doe", "ESG", "enterprise"},
		}},
		sheetDef{name: "Relationship_Map", rows: [][]interface{}{
			{"Account Name", "Seller Name", "Status"},
			{"Hooli", "J. Doe", "must_keep"},
			{"Acme", "J. Doe", "must_keep"},
		}},
	)

	summary, err := env.coordinator.Run(context.Background(), buf, Options{Mode: models.ImportModeReplace})
	require.NoError(t, err)

	rels := summary.Entity(models.EntityRelationships)
	assert.Equal(t, 1, rels.Imported)
	require.Len(t, rels.Errors, 1)
	assert.Contains(t, rels.Errors[0], "Hooli")

	var active []models.Relationship
	require.NoError(t, env.db.Find(&active).Error)
	assert.Len(t, active, 1)
}

func TestReplaceModeLockContentionWarnsAndContinues(t *testing.T) {
	env := newTestEnv(t)
	acquired, err := env.locks.Acquire(context.Background(), "other-run", models.DefaultLockTTL)
	require.NoError(t, err)
	require.True(t, acquired)

	buf := workbookBytes(t, sheetDef{name: "Accounts", rows: [][]interface{}{
		{"Account Name", "Size", "Current Division"},
		{"Acme", "enterprise", "ESG"},
	}})

	summary, err := env.coordinator.Run(context.Background(), buf, Options{
		Mode:   models.ImportModeReplace,
		Holder: "this-run",
	})
	require.NoError(t, err)

	// The run proceeds unlocked and says so.
	assert.False(t, summary.LockAcquired)
	assert.Equal(t, 1, summary.Entity(models.EntityAccounts).Imported)
	require.NotEmpty(t, summary.Warnings)
	found := false
	for _, w := range summary.Warnings {
		if strings.Contains(w, "lock") {
			found = true
			break
		}
	}
	assert.True(t, found, "expected a lock contention warning in %v", summary.Warnings)

	// The foreign lock is untouched.
	lock, err := env.locks.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, "other-run", lock.Holder)
}

func TestReplaceRunFinishesAfterCallerCancels(t *testing.T) {
	env := newTestEnv(t)
	old := models.Account{Name: "Old Corp", Size: models.SizeEnterprise, CurrentDivision: models.DivisionESG}
	require.NoError(t, env.db.Create(&old).Error)
	oldSeller := models.Seller{Name: "Old Seller", Division: models.DivisionESG, Size: models.SizeEnterprise, Seniority: models.SeniorityJunior}
	require.NoError(t, env.db.Create(&oldSeller).Error)
	require.NoError(t, env.db.Create(&models.Relationship{
		AccountID: old.ID, SellerID: oldSeller.ID, Status: models.StatusMustKeep,
	}).Error)

	buf := workbookBytes(t,
		sheetDef{name: "Accounts", rows: [][]interface{}{
			{"Account Name", "Size", "Current Division"},
			{"Acme", "enterprise", "ESG"},
		}},
		sheetDef{name: "Sellers", rows: [][]interface{}{
			{"Seller Name", "Division", "Size"},
			{"J. Doe", "ESG", "enterprise"},
		}},
		sheetDef{name: "Relationship_Map", rows: [][]interface{}{
			{"Account Name", "Seller Name", "Status"},
			{"Acme", "J. Doe", "must_keep"},
		}},
	)

	// The caller bails out after earlier phases have already cleared the
	// dependent tables. The run must still write the new rows: stopping here
	// would leave the store deleted but not rebuilt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	summary, err := env.coordinator.Run(ctx, buf, Options{
		Mode: models.ImportModeReplace,
		Progress: func(state RunState, message string) {
			if strings.Contains(message, "relationships: phase started") {
				cancel()
			}
		},
	})
	require.NoError(t, err)

	rels := summary.Entity(models.EntityRelationships)
	assert.Empty(t, rels.Errors)
	assert.Equal(t, 1, rels.Imported)

	var acme models.Account
	require.NoError(t, env.db.Where("name = ?", "Acme").First(&acme).Error)
	var active []models.Relationship
	require.NoError(t, env.db.Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, acme.ID, active[0].AccountID)
}

func TestDuplicateRowsDeduplicatedWithinRun(t *testing.T) {
	env := newTestEnv(t)
	buf := workbookBytes(t, sheetDef{name: "Accounts", rows: [][]interface{}{
		{"Account Name", "Size", "Current Division"},
		{"Acme", "enterprise", "ESG"},
		{"acme", "midmarket", "GDT"},
	}})

	summary, err := env.coordinator.Run(context.Background(), buf, Options{Mode: models.ImportModeReplace})
	require.NoError(t, err)

	accounts := summary.Entity(models.EntityAccounts)
	assert.Equal(t, 1, accounts.Imported)
	assert.Equal(t, 1, accounts.Skipped)

	// First occurrence wins.
	var account models.Account
	require.NoError(t, env.db.First(&account).Error)
	assert.Equal(t, "Acme", account.Name)
	assert.Equal(t, models.SizeEnterprise, account.Size)
}

func TestSellerWithUnknownManagerEmailIsDropped(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "dana.reeve@company.com", "Dana Reeve")

	buf := workbookBytes(t,
		sheetDef{name: "Managers", rows: [][]interface{}{
			{"Manager Name", "Email"},
			{"Dana Reeve", "dana.reeve@company.com"},
		}},
		sheetDef{name: "Sellers", rows: [][]interface{}{
			{"Seller Name", "Division", "Size", "Manager Email"},
			{"J. Doe", "ESG", "enterprise", "dana.reeve@company.com"},
			{"K. Roe", "GDT", "midmarket", "nobody@company.com"},
		}},
	)

	summary, err := env.coordinator.Run(context.Background(), buf, Options{Mode: models.ImportModeReplace})
	require.NoError(t, err)

	sellers := summary.Entity(models.EntitySellers)
	assert.Equal(t, 1, sellers.Imported)
	require.Len(t, sellers.Errors, 1)
	assert.Contains(t, sellers.Errors[0], "nobody@company.com")

	var count int64
	env.db.Model(&models.Seller{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUnreadableFileFailsBeforeAnyWrite(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.Account{Name: "Keep", Size: models.SizeEnterprise, CurrentDivision: models.DivisionESG}).Error)

	_, err := env.coordinator.Run(context.Background(), bytes.NewReader([]byte("garbage")), Options{Mode: models.ImportModeReplace})
	require.Error(t, err)

	var count int64
	env.db.Model(&models.Account{}).Count(&count)
	assert.Equal(t, int64(1), count, "nothing may be deleted on a parse failure")
}
