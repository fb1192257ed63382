package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"reassignment-service/internal/models"
	"reassignment-service/internal/repository"
	"reassignment-service/internal/workbook"
)

// RunState names the coordinator's state machine stages.
type RunState string

const (
	StateIdle            RunState = "idle"
	StateValidating      RunState = "validating"
	StateImporting       RunState = "importing"
	StateReleasingLock   RunState = "releasing_lock"
	StateRefreshingViews RunState = "refreshing_views"
	StateLoggingAudit    RunState = "logging_audit"
	StateComplete        RunState = "complete"
	StateFailed          RunState = "failed"
)

// ProgressFunc receives human-readable progress as phases advance.
type ProgressFunc func(state RunState, message string)

// Options configures one coordinator run.
type Options struct {
	Mode     models.ImportMode
	FileName string
	FileSize int64
	// Holder identifies this run to the import lock.
	Holder  string
	LockTTL time.Duration
	// LegacyStatuses widens the accepted relationship status set to the old
	// assignment-mode values.
	LegacyStatuses bool
	Progress       ProgressFunc
}

// Coordinator sequences the five entity phases against the shared store.
// One run is one synchronous pass; there is no internal parallelism and no
// mid-run cancellation of a replace sequence.
type Coordinator struct {
	accounts repository.AccountRepository
	sellers  repository.SellerRepository
	managers repository.ManagerRepository
	rels     repository.RelationshipRepository
	locks    repository.LockRepository
	views    repository.ViewRepository
	audits   repository.AuditRepository

	limiter *rate.Limiter
	logger  *logrus.Entry
}

func NewCoordinator(
	accounts repository.AccountRepository,
	sellers repository.SellerRepository,
	managers repository.ManagerRepository,
	rels repository.RelationshipRepository,
	locks repository.LockRepository,
	views repository.ViewRepository,
	audits repository.AuditRepository,
	logger *logrus.Logger,
) *Coordinator {
	return &Coordinator{
		accounts: accounts,
		sellers:  sellers,
		managers: managers,
		rels:     rels,
		locks:    locks,
		views:    views,
		audits:   audits,
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		logger:   logger.WithField("component", "import-coordinator"),
	}
}

// SetLimiter overrides the join-table inter-chunk limiter.
func (c *Coordinator) SetLimiter(l *rate.Limiter) {
	c.limiter = l
}

// run is the per-run mutable state. Everything run-scoped lives here, never
// on the Coordinator, so concurrent callers cannot bleed into each other.
type run struct {
	opts      Options
	wb        *workbook.Workbook
	resolver  *Resolver
	summary   *models.ImportSummary
	schema    map[models.EntityType]ValidationResult
	state     RunState
	lockHeld  bool
	startedAt time.Time
	logger    *logrus.Entry
}

func (r *run) progress(state RunState, format string, args ...interface{}) {
	r.state = state
	msg := fmt.Sprintf(format, args...)
	r.logger.WithField("state", string(state)).Info(msg)
	if r.opts.Progress != nil {
		r.opts.Progress(state, fmt.Sprintf("%s (%.1fs elapsed)", msg, time.Since(r.startedAt).Seconds()))
	}
}

func (r *run) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Warn(msg)
	r.summary.Warnings = append(r.summary.Warnings, msg)
}

// phase binds an entity to its executor and its dependencies.
type phase struct {
	entity models.EntityType
	deps   []models.EntityType
	exec   func(ctx context.Context, r *run)
}

func (c *Coordinator) phases() []phase {
	return []phase{
		{entity: models.EntityManagers, exec: c.managersPhase},
		{entity: models.EntityAccounts, exec: c.accountsPhase},
		{entity: models.EntitySellers, deps: []models.EntityType{models.EntityManagers}, exec: c.sellersPhase},
		{entity: models.EntityRelationships, deps: []models.EntityType{models.EntityAccounts, models.EntitySellers}, exec: c.relationshipsPhase},
		{entity: models.EntityManagerTeams, deps: []models.EntityType{models.EntitySellers, models.EntityManagers}, exec: c.teamsPhase},
	}
}

// sortPhases topologically sorts phases by their dependencies, breaking ties
// by declaration order so the result is deterministic.
func sortPhases(phases []phase) ([]phase, error) {
	indegree := make(map[models.EntityType]int, len(phases))
	dependents := make(map[models.EntityType][]models.EntityType, len(phases))
	byEntity := make(map[models.EntityType]phase, len(phases))

	for _, p := range phases {
		byEntity[p.entity] = p
		indegree[p.entity] += 0
		for _, dep := range p.deps {
			indegree[p.entity]++
			dependents[dep] = append(dependents[dep], p.entity)
		}
	}

	sorted := make([]phase, 0, len(phases))
	for len(sorted) < len(phases) {
		advanced := false
		for _, p := range phases {
			if deg, pending := indegree[p.entity]; pending && deg == 0 {
				sorted = append(sorted, byEntity[p.entity])
				delete(indegree, p.entity)
				for _, dependent := range dependents[p.entity] {
					indegree[dependent]--
				}
				advanced = true
			}
		}
		if !advanced {
			return nil, fmt.Errorf("phase dependency cycle")
		}
	}
	return sorted, nil
}

// PhaseOrder exposes the resolved phase order.
func (c *Coordinator) PhaseOrder() []models.EntityType {
	sorted, err := sortPhases(c.phases())
	if err != nil {
		return nil
	}
	order := make([]models.EntityType, len(sorted))
	for i, p := range sorted {
		order[i] = p.entity
	}
	return order
}

// Run executes one import. The returned summary is per-entity; callers must
// inspect error counts rather than treat a nil error as full success. A
// non-nil error means nothing was imported (unreadable file, no known
// sheets, or an unsortable phase graph).
func (c *Coordinator) Run(ctx context.Context, file io.Reader, opts Options) (*models.ImportSummary, error) {
	if opts.Mode == "" {
		opts.Mode = models.ImportModeReplace
	}
	if opts.Holder == "" {
		opts.Holder = "import-coordinator"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = models.DefaultLockTTL
	}
	if opts.Mode == models.ImportModeReplace {
		// A started replace run must finish. Early phases delete dependent
		// tables, so honoring caller cancellation mid-run would leave the
		// store half rebuilt.
		ctx = context.WithoutCancel(ctx)
	}

	r := &run{
		opts: opts,
		resolver: NewResolver(c.accounts, c.sellers, c.managers),
		summary: &models.ImportSummary{
			Mode:      opts.Mode,
			FileName:  opts.FileName,
			FileSize:  opts.FileSize,
			Entities:  make(map[models.EntityType]*models.EntityResult),
			Warnings:  []string{},
			StartedAt: time.Now(),
		},
		schema:    make(map[models.EntityType]ValidationResult),
		state:     StateIdle,
		startedAt: time.Now(),
		logger: c.logger.WithFields(logrus.Fields{
			"mode": string(opts.Mode),
			"file": opts.FileName,
		}),
	}

	r.progress(StateValidating, "reading workbook %s", opts.FileName)
	wb, err := workbook.Read(file)
	if err != nil {
		r.state = StateFailed
		return nil, err
	}
	r.wb = wb

	sorted, err := sortPhases(c.phases())
	if err != nil {
		r.state = StateFailed
		return nil, err
	}

	found := 0
	for _, p := range sorted {
		if !wb.HasSheet(SheetFor(p.entity)) {
			continue
		}
		found++
		vr := ValidateSheet(wb, p.entity, opts.Mode)
		r.schema[p.entity] = vr
		r.summary.Warnings = append(r.summary.Warnings, vr.Warnings...)
	}
	if found == 0 {
		r.state = StateFailed
		return nil, &SchemaError{Sheet: "*", Reason: "workbook contains no recognized sheets"}
	}

	if opts.Mode == models.ImportModeReplace {
		acquired, err := c.locks.Acquire(ctx, opts.Holder, opts.LockTTL)
		if err != nil {
			r.warn("import lock acquisition errored: %v, proceeding without exclusion", err)
		} else if !acquired {
			r.warn("import lock held by another run, proceeding without exclusion")
		} else {
			r.lockHeld = true
		}
		r.summary.LockAcquired = r.lockHeld
	}

	for _, p := range sorted {
		if !wb.HasSheet(SheetFor(p.entity)) {
			r.progress(StateImporting, "%s: sheet absent, phase skipped", p.entity)
			continue
		}
		if vr := r.schema[p.entity]; !vr.Valid {
			res := r.summary.Entity(p.entity)
			res.Errors = append(res.Errors, vr.Errors...)
			r.progress(StateImporting, "%s: schema invalid, phase skipped", p.entity)
			continue
		}
		r.progress(StateImporting, "%s: phase started", p.entity)
		p.exec(ctx, r)
		res := r.summary.Entity(p.entity)
		r.progress(StateImporting, "%s: imported %d, skipped %d, %d errors",
			p.entity, res.Imported, res.Skipped, len(res.Errors))
	}

	r.progress(StateReleasingLock, "releasing import lock")
	if r.lockHeld {
		if _, err := c.locks.Release(ctx, opts.Holder); err != nil {
			r.warn("import lock release failed: %v", err)
		}
	}

	r.progress(StateRefreshingViews, "refreshing derived views")
	if err := c.views.RefreshDerivedViews(ctx); err != nil {
		r.warn("derived view refresh failed: %v", err)
	}

	r.summary.Duration = time.Since(r.startedAt)

	r.progress(StateLoggingAudit, "writing audit record")
	c.writeAudit(ctx, r)

	r.progress(StateComplete, "import finished: %d imported, %d errors",
		r.summary.TotalImported(), r.summary.TotalErrors())
	return r.summary, nil
}

func (c *Coordinator) writeAudit(ctx context.Context, r *run) {
	counts := models.JSON{}
	for entity, res := range r.summary.Entities {
		counts[string(entity)] = map[string]interface{}{
			"imported": res.Imported,
			"skipped":  res.Skipped,
			"errors":   len(res.Errors),
		}
	}
	log := &models.ImportAuditLog{
		Mode:          r.opts.Mode,
		FileName:      r.opts.FileName,
		FileSize:      r.opts.FileSize,
		Holder:        r.opts.Holder,
		TotalImported: r.summary.TotalImported(),
		TotalErrors:   r.summary.TotalErrors(),
		EntityCounts:  counts,
		DurationMS:    r.summary.Duration.Milliseconds(),
	}
	if err := c.audits.Create(ctx, log); err != nil {
		r.warn("audit record write failed: %v", err)
	}
}

func (c *Coordinator) managersPhase(ctx context.Context, r *run) {
	res := r.summary.Entity(models.EntityManagers)
	rows := r.wb.Rows(SheetManagers)

	deduped, removed := Deduplicate(rows, func(row workbook.Row) string {
		return strings.ToLower(row["email"])
	})
	res.Skipped += removed

	profiles, err := r.resolver.ProfileIndex(ctx)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}

	var existing *EmailIndex
	if r.opts.Mode == models.ImportModeAdd {
		existing, err = r.resolver.ManagerIndex(ctx)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			return
		}
	}

	managers := make([]models.Manager, 0, len(deduped))
	for _, row := range deduped {
		name := row["manager_name"]
		email := row["email"]
		if name == "" || email == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: manager_name and email are required", SheetManagers, row.RowNumber()))
			continue
		}
		if existing != nil {
			if _, err := existing.Resolve(email); err == nil {
				res.Skipped++
				continue
			}
		}
		profileID, err := profiles.Resolve(email)
		if err != nil {
			res.Errors = append(res.Errors, (&NameResolutionError{
				Sheet: SheetManagers, Row: row.RowNumber(), Field: "email", Value: email, Cause: err,
			}).Error())
			continue
		}
		managers = append(managers, models.Manager{ProfileID: profileID, Name: name})
	}

	if r.opts.Mode == models.ImportModeReplace {
		if err := c.rels.DeleteAllTeams(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing manager teams: %v", err))
			return
		}
		if err := c.sellers.DetachManagers(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("detaching sellers: %v", err))
			return
		}
		if err := c.managers.DeleteAll(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing managers: %v", err))
			return
		}
	}

	write := c.managers.UpsertBatch
	if r.opts.Mode == models.ImportModeAdd {
		write = c.managers.InsertBatch
	}
	br := ProcessInChunks(ctx, managers, EntityBatchSize, nil, write)
	res.Imported += br.Imported
	res.Errors = append(res.Errors, br.ErrorStrings()...)

	r.resolver.InvalidateManagers()
}

func (c *Coordinator) accountsPhase(ctx context.Context, r *run) {
	res := r.summary.Entity(models.EntityAccounts)
	rows := r.wb.Rows(SheetAccounts)

	deduped, removed := Deduplicate(rows, func(row workbook.Row) string {
		return strings.ToLower(row["account_name"])
	})
	res.Skipped += removed

	var existing *Index
	if r.opts.Mode == models.ImportModeAdd {
		var err error
		existing, err = r.resolver.AccountIndex(ctx)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			return
		}
	}

	type revenueFigures struct {
		esg, gdt, gvc, msgUS float64
	}
	accounts := make([]models.Account, 0, len(deduped))
	revenueByName := make(map[string]revenueFigures, len(deduped))
	for _, row := range deduped {
		name := row["account_name"]
		if name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: account_name is required", SheetAccounts, row.RowNumber()))
			continue
		}
		if existing != nil {
			if _, err := existing.Resolve(name); err == nil {
				res.Skipped++
				continue
			}
		}
		size := models.SizeClass(normalizeEnum(row["size"]))
		if !models.IsValidSizeClass(size) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: invalid size %q", SheetAccounts, row.RowNumber(), row["size"]))
			continue
		}
		division := models.Division(strings.ToUpper(normalizeEnum(row["current_division"])))
		if !models.IsValidDivision(division) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: invalid division %q", SheetAccounts, row.RowNumber(), row["current_division"]))
			continue
		}
		accounts = append(accounts, models.Account{
			Name:            name,
			Size:            size,
			CurrentDivision: division,
			Industry:        strPtr(row["industry"]),
			Tier:            strPtr(row["tier"]),
			AccountType:     strPtr(row["type"]),
			State:           strPtr(row["state"]),
			City:            strPtr(row["city"]),
			Country:         strPtr(row["country"]),
		})
		revenueByName[name] = revenueFigures{
			esg:   parseFloat(row["revenue_esg"]),
			gdt:   parseFloat(row["revenue_gdt"]),
			gvc:   parseFloat(row["revenue_gvc"]),
			msgUS: parseFloat(row["revenue_msg_us"]),
		}
	}

	if r.opts.Mode == models.ImportModeReplace {
		if err := c.accounts.DeleteAllRevenues(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing account revenues: %v", err))
			return
		}
		if err := c.rels.DeleteAllActive(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing relationships: %v", err))
			return
		}
		if err := c.rels.DeleteAllSnapshots(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing relationship snapshots: %v", err))
			return
		}
		if err := c.accounts.DeleteAll(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing accounts: %v", err))
			return
		}
	}

	write := c.accounts.UpsertBatch
	if r.opts.Mode == models.ImportModeAdd {
		write = c.accounts.InsertBatch
	}
	br := ProcessInChunks(ctx, accounts, EntityBatchSize, nil, write)
	res.Imported += br.Imported
	res.Errors = append(res.Errors, br.ErrorStrings()...)

	r.resolver.InvalidateAccounts()

	// Revenue rows need the persisted account IDs, so resolve against the
	// store after the account write.
	index, err := r.resolver.AccountIndex(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("resolving accounts for revenue rows: %v", err))
		return
	}
	revenues := make([]models.AccountRevenue, 0, len(revenueByName))
	for name, fig := range revenueByName {
		id, err := index.Resolve(name)
		if err != nil {
			continue
		}
		revenues = append(revenues, models.AccountRevenue{
			AccountID:    id,
			RevenueESG:   fig.esg,
			RevenueGDT:   fig.gdt,
			RevenueGVC:   fig.gvc,
			RevenueMSGUS: fig.msgUS,
		})
	}
	writeRev := c.accounts.UpsertRevenues
	if r.opts.Mode == models.ImportModeAdd {
		writeRev = c.accounts.InsertRevenues
	}
	rbr := ProcessInChunks(ctx, revenues, EntityBatchSize, nil, writeRev)
	res.Errors = append(res.Errors, rbr.ErrorStrings()...)
}

func (c *Coordinator) sellersPhase(ctx context.Context, r *run) {
	res := r.summary.Entity(models.EntitySellers)
	rows := r.wb.Rows(SheetSellers)

	deduped, removed := Deduplicate(rows, func(row workbook.Row) string {
		return strings.ToLower(row["seller_name"])
	})
	res.Skipped += removed

	managerIx, err := r.resolver.ManagerIndex(ctx)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}
	var existing *Index
	if r.opts.Mode == models.ImportModeAdd {
		existing, err = r.resolver.SellerIndex(ctx)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			return
		}
	}

	now := time.Now()
	sellers := make([]models.Seller, 0, len(deduped))
	for _, row := range deduped {
		name := row["seller_name"]
		if name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: seller_name is required", SheetSellers, row.RowNumber()))
			continue
		}
		if existing != nil {
			if _, err := existing.Resolve(name); err == nil {
				res.Skipped++
				continue
			}
		}
		division := models.Division(strings.ToUpper(normalizeEnum(row["division"])))
		if !models.IsValidDivision(division) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: invalid division %q", SheetSellers, row.RowNumber(), row["division"]))
			continue
		}
		size := models.SizeClass(normalizeEnum(row["size"]))
		if !models.IsValidSizeClass(size) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: invalid size %q", SheetSellers, row.RowNumber(), row["size"]))
			continue
		}

		seller := models.Seller{
			Name:     name,
			Division: division,
			Size:     size,
			City:     strPtr(row["city"]),
			State:    strPtr(row["state"]),
			Country:  strPtr(row["country"]),
		}
		if hd := row["hire_date"]; hd != "" {
			if hireDate, ok := parseDate(hd); ok {
				tenure := models.TenureMonthsFrom(hireDate, now)
				seller.HireDate = &hireDate
				seller.TenureMonths = &tenure
			} else {
				r.warn("%s row %d: unparseable hire date %q, tenure left unset", SheetSellers, row.RowNumber(), hd)
			}
		}
		seller.Seniority = models.SeniorityJunior
		if normalizeEnum(row["seniority"]) == string(models.SenioritySenior) {
			seller.Seniority = models.SenioritySenior
		}
		seller.BookFinalized = parseBool(row["book_finalized"], false)

		if email := row["manager_email"]; email != "" {
			managerID, err := managerIx.Resolve(email)
			if err != nil {
				res.Errors = append(res.Errors, (&NameResolutionError{
					Sheet: SheetSellers, Row: row.RowNumber(), Field: "manager_email", Value: email, Cause: err,
				}).Error())
				continue
			}
			seller.ManagerID = &managerID
		}
		sellers = append(sellers, seller)
	}

	if r.opts.Mode == models.ImportModeReplace {
		if n, err := c.sellers.BackupChatHistory(ctx); err != nil {
			r.warn("chat history backup failed: %v", err)
		} else if n > 0 {
			r.progress(StateImporting, "sellers: backed up %d chat rows", n)
		}
		if err := c.rels.DeleteAllActive(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing relationships: %v", err))
			return
		}
		if err := c.rels.DeleteAllSnapshots(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing relationship snapshots: %v", err))
			return
		}
		if err := c.rels.DeleteAllTeams(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing manager teams: %v", err))
			return
		}
		if err := c.sellers.DeleteAll(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing sellers: %v", err))
			return
		}
	}

	write := c.sellers.UpsertBatch
	if r.opts.Mode == models.ImportModeAdd {
		write = c.sellers.InsertBatch
	}
	br := ProcessInChunks(ctx, sellers, EntityBatchSize, nil, write)
	res.Imported += br.Imported
	res.Errors = append(res.Errors, br.ErrorStrings()...)

	r.resolver.InvalidateSellers()

	if r.opts.Mode == models.ImportModeReplace {
		if n, err := c.sellers.RestoreChatHistory(ctx); err != nil {
			r.warn("chat history restore failed: %v", err)
		} else if n > 0 {
			r.progress(StateImporting, "sellers: restored %d chat rows", n)
		}
	}
}

func (c *Coordinator) relationshipsPhase(ctx context.Context, r *run) {
	res := r.summary.Entity(models.EntityRelationships)
	rows := r.wb.Rows(SheetRelationships)

	deduped, removed := Deduplicate(rows, func(row workbook.Row) string {
		return strings.ToLower(row["account_name"]) + "\x00" + strings.ToLower(row["seller_name"])
	})
	res.Skipped += removed

	// Indexes must be fresh: earlier phases in this run may have just created
	// the accounts and sellers these rows reference.
	accountIx, err := r.resolver.AccountIndex(ctx)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}
	sellerIx, err := r.resolver.SellerIndex(ctx)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}

	var active []models.Relationship
	var snapshots []models.OriginalRelationship
	for _, row := range deduped {
		accountName := row["account_name"]
		sellerName := row["seller_name"]
		if accountName == "" || sellerName == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: account_name and seller_name are required", SheetRelationships, row.RowNumber()))
			continue
		}
		accountID, err := accountIx.Resolve(accountName)
		if err != nil {
			res.Errors = append(res.Errors, (&NameResolutionError{
				Sheet: SheetRelationships, Row: row.RowNumber(), Field: "account_name", Value: accountName, Cause: err,
			}).Error())
			continue
		}
		sellerID, err := sellerIx.Resolve(sellerName)
		if err != nil {
			res.Errors = append(res.Errors, (&NameResolutionError{
				Sheet: SheetRelationships, Row: row.RowNumber(), Field: "seller_name", Value: sellerName, Cause: err,
			}).Error())
			continue
		}

		status := models.RelationshipStatus(normalizeEnum(row["status"]))
		switch {
		case models.IsSnapshotStatus(status):
			snapshots = append(snapshots, models.OriginalRelationship{AccountID: accountID, SellerID: sellerID})
		case models.IsActiveStatus(status, r.opts.LegacyStatuses):
			active = append(active, models.Relationship{AccountID: accountID, SellerID: sellerID, Status: status})
		default:
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: invalid status %q", SheetRelationships, row.RowNumber(), row["status"]))
		}
	}

	if r.opts.Mode == models.ImportModeReplace {
		if err := c.rels.DeleteAllActive(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing relationships: %v", err))
			return
		}
		if err := c.rels.DeleteAllSnapshots(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing relationship snapshots: %v", err))
			return
		}
	}

	writeSnap := c.rels.UpsertSnapshotBatch
	writeActive := c.rels.UpsertActiveBatch
	if r.opts.Mode == models.ImportModeAdd {
		writeSnap = c.rels.InsertSnapshotBatch
		writeActive = c.rels.InsertActiveBatch
	}

	sbr := ProcessInChunks(ctx, snapshots, RelationshipBatchSize, c.limiter, writeSnap)
	res.Errors = append(res.Errors, sbr.ErrorStrings()...)
	if sbr.Imported > 0 {
		r.progress(StateImporting, "relationships: recorded %d baseline snapshot rows", sbr.Imported)
	}

	abr := ProcessInChunks(ctx, active, RelationshipBatchSize, c.limiter, writeActive)
	res.Imported += abr.Imported
	res.Errors = append(res.Errors, abr.ErrorStrings()...)
}

func (c *Coordinator) teamsPhase(ctx context.Context, r *run) {
	res := r.summary.Entity(models.EntityManagerTeams)
	rows := r.wb.Rows(SheetManagerTeams)

	deduped, removed := Deduplicate(rows, func(row workbook.Row) string {
		return strings.ToLower(row["seller_name"]) + "\x00" + strings.ToLower(row["manager_email"])
	})
	res.Skipped += removed

	sellerIx, err := r.resolver.SellerIndex(ctx)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}
	managerIx, err := r.resolver.ManagerIndex(ctx)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}

	teams := make([]models.ManagerTeam, 0, len(deduped))
	for _, row := range deduped {
		sellerName := row["seller_name"]
		email := row["manager_email"]
		if sellerName == "" || email == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: seller_name and manager_email are required", SheetManagerTeams, row.RowNumber()))
			continue
		}
		sellerID, err := sellerIx.Resolve(sellerName)
		if err != nil {
			res.Errors = append(res.Errors, (&NameResolutionError{
				Sheet: SheetManagerTeams, Row: row.RowNumber(), Field: "seller_name", Value: sellerName, Cause: err,
			}).Error())
			continue
		}
		managerID, err := managerIx.Resolve(email)
		if err != nil {
			res.Errors = append(res.Errors, (&NameResolutionError{
				Sheet: SheetManagerTeams, Row: row.RowNumber(), Field: "manager_email", Value: email, Cause: err,
			}).Error())
			continue
		}
		teams = append(teams, models.ManagerTeam{
			SellerID:  sellerID,
			ManagerID: managerID,
			IsPrimary: parseBool(row["is_primary"], true),
		})
	}

	if r.opts.Mode == models.ImportModeReplace {
		if err := c.rels.DeleteAllTeams(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clearing manager teams: %v", err))
			return
		}
	}

	write := c.rels.UpsertTeamBatch
	if r.opts.Mode == models.ImportModeAdd {
		write = c.rels.InsertTeamBatch
	}
	br := ProcessInChunks(ctx, teams, RelationshipBatchSize, c.limiter, write)
	res.Imported += br.Imported
	res.Errors = append(res.Errors, br.ErrorStrings()...)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006-01-02T15:04:05Z07:00"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBool(s string, fallback bool) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	switch s {
	case "true", "yes", "y", "1":
		return true
	case "false", "no", "n", "0":
		return false
	}
	return fallback
}

// normalizeEnum lower-cases and underscores a workbook enum cell so values
// like "Must Keep" and "must_keep" compare equal.
func normalizeEnum(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
}
