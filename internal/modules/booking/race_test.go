// README: PostgreSQL-backed store tests (run with -race and HOMESERVE_TEST_DSN).
package booking

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"homeserve/internal/types"
)

func TestPGConcurrentAcceptSameBooking(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	f := newFixture(t)
	f.svc.store = store

	r := f.create(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Respond(ctx, RespondCommand{BookingID: r.ID, TechnicianID: "tech-a", Accept: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrAlreadyAssigned) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	b, err := store.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if b.Status() != StatusAccepted {
		t.Fatalf("unexpected final status: %s", b.Status())
	}
	if tech, ok := b.TechnicianID(); !ok || tech != "tech-a" {
		t.Fatalf("expected technician tech-a, got %q", tech)
	}
	var events int
	if err := store.db.QueryRow(ctx, "SELECT COUNT(*) FROM booking_status_events WHERE booking_id = $1", string(r.ID)).Scan(&events); err != nil {
		t.Fatalf("count events: %v", err)
	}
	// ASSIGNED_PENDING on create, ACCEPTED once
	if events != 2 {
		t.Fatalf("expected 2 status events, got %d", events)
	}
}

func TestPGSaveDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	b := newTestBooking("tech-a", "tech-b")
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, _ := store.FindByID(ctx, b.ID())
	second, _ := store.FindByID(ctx, b.ID())

	if err := first.Reject("tech-a", "busy", t0, ttl); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := second.Timeout(t0.Add(ttl), ttl); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale save err = %v, want ErrConflict", err)
	}

	got, _ := store.FindByID(ctx, b.ID())
	if got.Version() != 2 {
		t.Fatalf("version = %d, want 2", got.Version())
	}
	if p, _ := got.PendingAttempt(); p.TechnicianID != "tech-b" {
		t.Fatalf("pending = %s, want tech-b", p.TechnicianID)
	}
}

func TestPGRoundTripAndQueries(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	b := newTestBooking("tech-a")
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	due, err := store.FindExpiredAssignments(ctx, t0.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if len(due) != 1 || due[0].ID() != b.ID() {
		t.Fatalf("expected booking to be due, got %d", len(due))
	}
	if due, _ := store.FindExpiredAssignments(ctx, t0, 10); len(due) != 0 {
		t.Fatalf("offer reported expired before its deadline")
	}

	got, err := store.FindByID(ctx, b.ID())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := b.Record()
	rec := got.Record()
	if rec.Location != want.Location || rec.Pricing.Estimated != want.Pricing.Estimated || len(rec.Attempts) != 1 {
		t.Fatalf("round trip mismatch: %+v", rec)
	}
	if rec.CandidateDistances["tech-a"] != 1 {
		t.Fatalf("candidate distance lost: %v", rec.CandidateDistances)
	}

	if _, err := store.FindByID(ctx, types.ID("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	if _, err := store.FindByPaymentOrderID(ctx, "order_none"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing order err = %v", err)
	}
}

func setupTestStore(t *testing.T) *PGStore {
	t.Helper()

	dsn := os.Getenv("HOMESERVE_TEST_DSN")
	if dsn == "" {
		t.Skip("HOMESERVE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE booking_status_events, bookings"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	var out []string
	for _, p := range strings.Split(input, ";") {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
