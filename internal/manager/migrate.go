package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Phase percentages reported to the progress observer.
const (
	percentExporting  = 10
	percentImporting  = 35
	percentValidating = 70
	percentComplete   = 100
)

// MigrationReport describes a finished migration.
type MigrationReport struct {
	ID        string            `json:"id"`
	From      types.BackendType `json:"from"`
	To        types.BackendType `json:"to"`
	ItemCount int               `json:"itemCount"`
	Duration  time.Duration     `json:"duration"`
}

// Migrate copies everything from the active backend to target and, once the
// copy is verified, makes target the active backend. Only one migration runs
// at a time. Any failure leaves the active backend and its data untouched.
//
// Writes that reach the source after the export phase are not carried over.
func (m *Manager) Migrate(ctx context.Context, target types.BackendType, onProgress types.ProgressFunc) types.Result[MigrationReport] {
	if !target.Valid() {
		return types.Failf[MigrationReport]("migrate to %q: %w", target, types.ErrUnknownBackend)
	}
	if !m.migrating.CompareAndSwap(false, true) {
		return types.Fail[MigrationReport](types.ErrMigrationInProgress)
	}
	defer m.migrating.Store(false)

	source, err := m.Storage()
	if err != nil {
		return types.Fail[MigrationReport](err)
	}
	report := MigrationReport{
		ID:   uuid.Must(uuid.NewV7()).String(),
		From: source.Type(),
		To:   target,
	}
	if source.Type() == target {
		return types.Ok(report)
	}

	run := &migration{
		m:          m,
		report:     report,
		onProgress: onProgress,
		start:      m.now(),
		log:        m.log,
	}
	ctx, run.span = tracer.Start(ctx, "daybook.Manager.Migrate",
		trace.WithAttributes(
			attribute.String("migration_id", report.ID),
			attribute.String("from", string(report.From)),
			attribute.String("to", string(target)),
		),
	)
	defer run.span.End()

	return run.execute(ctx, source, m.backend(target))
}

type migration struct {
	m          *Manager
	report     MigrationReport
	onProgress types.ProgressFunc
	start      time.Time
	log        *observability.Logger
	span       trace.Span
}

func (r *migration) execute(ctx context.Context, source, dest types.StorageProvider) types.Result[MigrationReport] {
	r.progress(types.PhaseExporting, percentExporting, fmt.Sprintf("exporting from %s", source.Type()))
	snap := source.ExportAll(ctx)
	if !snap.Success {
		return r.fail(percentExporting, fmt.Errorf("export from %s: %w", source.Type(), snap.Err()))
	}

	r.progress(types.PhaseImporting, percentImporting, fmt.Sprintf("importing %d items into %s", snap.Data.ItemCount(), dest.Type()))
	if err := r.m.ensureReady(ctx, dest); err != nil {
		return r.fail(percentImporting, fmt.Errorf("initialize %s: %w", dest.Type(), err))
	}
	if res := dest.ImportAll(ctx, snap.Data); !res.Success {
		return r.fail(percentImporting, fmt.Errorf("import into %s: %w", dest.Type(), res.Err()))
	}

	r.progress(types.PhaseValidating, percentValidating, "validating item count")
	check := dest.ExportAll(ctx)
	if !check.Success {
		return r.fail(percentValidating, fmt.Errorf("read back from %s: %w", dest.Type(), check.Err()))
	}
	want, got := snap.Data.ItemCount(), check.Data.ItemCount()
	if want != got {
		return r.fail(percentValidating, fmt.Errorf("%w: exported %d items, %s holds %d",
			types.ErrValidationMismatch, want, dest.Type(), got))
	}

	if err := r.m.switchTo(dest); err != nil {
		return r.fail(percentComplete, err)
	}

	r.report.ItemCount = want
	r.report.Duration = r.m.now().Sub(r.start)
	r.progress(types.PhaseComplete, percentComplete, fmt.Sprintf("migrated %d items to %s", want, dest.Type()))
	r.record("success")
	r.span.SetStatus(codes.Ok, "")
	return types.Ok(r.report)
}

func (r *migration) progress(phase types.MigrationPhase, percent int, msg string) {
	r.span.AddEvent(string(phase), trace.WithAttributes(attribute.Int("percent", percent)))
	r.log.Migration(r.report.ID, string(phase), percent, "message", msg)
	if r.onProgress != nil {
		r.onProgress(types.Progress{Phase: phase, Percent: percent, Message: msg})
	}
}

func (r *migration) fail(percent int, err error) types.Result[MigrationReport] {
	r.progress(types.PhaseError, percent, err.Error())
	r.log.Error("migration failed", "migration_id", r.report.ID, "error", err)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, "migration failed")
	r.record("error")
	return types.Failf[MigrationReport]("migrate %s to %s: %w", r.report.From, r.report.To, err)
}

func (r *migration) record(status string) {
	migrationsTotal.WithLabelValues(string(r.report.From), string(r.report.To), status).Inc()
	migrationDuration.WithLabelValues(status).Observe(r.m.now().Sub(r.start).Seconds())
}

// switchTo flips the active pointer and persists the metadata. If the
// metadata cannot be written the pointer is restored.
func (m *Manager) switchTo(dest types.StorageProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.active
	m.active = dest
	now := m.now()
	meta := types.BackendMetadata{
		ActiveBackend:          dest.Type(),
		LastMigrationTimestamp: &now,
		Version:                types.MetadataVersion,
	}
	if err := m.writeMetadata(meta); err != nil {
		m.active = prev
		return err
	}
	return nil
}
