// README: Bench cases for the booking lifecycle; HTTP flow, DB consistency, accept race and load checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// bookingID is set by the create case and reused by later cases.
	bookingID string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "FAIL", Note: "db not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: "FAIL", Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Migration: apply (optional)", Run: func(ctx context.Context, r *Runner) Result {
			if !r.cfg.ApplyMigration {
				return Result{Status: "SKIP", Note: "apply-migration=false"}
			}
			if r.db == nil {
				return Result{Status: "FAIL", Note: "db not configured"}
			}
			sql, err := os.ReadFile(r.cfg.MigrationPath)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			for _, s := range splitSQL(string(sql)) {
				if _, err := r.db.Exec(ctx, s); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Migration: tables exist", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "FAIL", Note: "db not configured"}
			}
			tables, err := extractTables(r.cfg.MigrationPath)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			for _, t := range tables {
				var exists bool
				err := r.db.QueryRow(ctx,
					"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", t,
				).Scan(&exists)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if !exists {
					return Result{Status: "FAIL", Note: "missing table: " + t}
				}
			}
			return Result{Status: "PASS"}
		}},

		statusCase("API: health", http.MethodGet, base+"/health", nil, "", http.StatusOK),
		statusCase("Auth: create without token -> 401", http.MethodPost, base+"/api/bookings", map[string]any{
			"service_id": r.cfg.ServiceID, "address": "anywhere",
		}, "", http.StatusUnauthorized),
		tokenCase("Auth: technician cannot create -> 403", r.cfg.TechnicianToken, http.MethodPost, base+"/api/bookings", map[string]any{
			"service_id": r.cfg.ServiceID, "lat": r.cfg.Lat, "lng": r.cfg.Lng,
		}, http.StatusForbidden),
		tokenCase("Booking: create missing service -> 400", r.cfg.CustomerToken, http.MethodPost, base+"/api/bookings", map[string]any{
			"lat": r.cfg.Lat, "lng": r.cfg.Lng,
		}, http.StatusBadRequest),
		tokenCase("Booking: unserviceable point -> 422", r.cfg.CustomerToken, http.MethodPost, base+"/api/bookings", map[string]any{
			"service_id": r.cfg.ServiceID, "lat": -89.9, "lng": 0.1,
		}, http.StatusUnprocessableEntity),

		{Name: "Booking: create", Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.CustomerToken == "" {
				return Result{Status: "SKIP", Note: "no customer token"}
			}
			start := time.Now()
			code, body, err := r.do(ctx, http.MethodPost, base+"/api/bookings", r.cfg.CustomerToken, map[string]any{
				"service_id":   r.cfg.ServiceID,
				"lat":          r.cfg.Lat,
				"lng":          r.cfg.Lng,
				"address":      "bench",
				"instructions": "bench run",
			})
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if code != http.StatusCreated {
				return Result{Status: "FAIL", Latency: time.Since(start), Note: fmt.Sprintf("status=%d %s", code, body)}
			}
			var v struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			_ = json.Unmarshal(body, &v)
			r.bookingID = v.ID
			return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("id=%s status=%s", v.ID, v.Status)}
		}},
		{Name: "Booking: customer reads own booking", Run: func(ctx context.Context, r *Runner) Result {
			if r.bookingID == "" {
				return Result{Status: "SKIP", Note: "no booking created"}
			}
			code, _, err := r.do(ctx, http.MethodGet, base+"/api/bookings/"+r.bookingID, r.cfg.CustomerToken, nil)
			return expect(code, err, http.StatusOK)
		}},
		{Name: "Concurrency: many accepts, one winner", Run: func(ctx context.Context, r *Runner) Result {
			return concurrentAccept(ctx, r)
		}},
		{Name: "Consistency: status matches last event", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "SKIP", Note: "db not configured"}
			}
			var drift int
			err := r.db.QueryRow(ctx, `
				SELECT COUNT(*) FROM bookings b
				WHERE b.status <> (
					SELECT e.to_status FROM booking_status_events e
					WHERE e.booking_id = b.id ORDER BY e.id DESC LIMIT 1)`).Scan(&drift)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if drift > 0 {
				return Result{Status: "FAIL", Note: fmt.Sprintf("%d bookings out of sync", drift)}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Consistency: expired offers are swept", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "SKIP", Note: "db not configured"}
			}
			var stale int
			err := r.db.QueryRow(ctx, `
				SELECT COUNT(*) FROM bookings
				WHERE status = 'ASSIGNED_PENDING' AND assignment_expires_at < $1`,
				time.Now().Add(-3*r.cfg.SweepInterval)).Scan(&stale)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if stale > 0 {
				return Result{Status: "FAIL", Note: fmt.Sprintf("%d offers past expiry", stale)}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Booking: customer cancel", Run: func(ctx context.Context, r *Runner) Result {
			if r.bookingID == "" {
				return Result{Status: "SKIP", Note: "no booking created"}
			}
			code, _, err := r.do(ctx, http.MethodPost, base+"/api/bookings/"+r.bookingID+"/cancel", r.cfg.CustomerToken, map[string]any{"reason": "bench"})
			// 409 when the technician already started the job.
			if err == nil && code == http.StatusConflict {
				return Result{Status: "PASS", Note: "status=409"}
			}
			return expect(code, err, http.StatusOK)
		}},

		{Name: "Perf: location update throughput", Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.TechnicianToken == "" {
				return Result{Status: "SKIP", Note: "no technician token"}
			}
			var mu sync.Mutex
			seq := time.Now().UnixNano()
			return perfLoad(ctx, r, http.MethodPut, base+"/api/technician/location", r.cfg.TechnicianToken, func() any {
				mu.Lock()
				seq++
				n := seq
				mu.Unlock()
				return map[string]any{"lat": r.cfg.Lat, "lng": r.cfg.Lng, "seq": n}
			})
		}},
	}
}

func (r *Runner) do(ctx context.Context, method, url, token string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, out, nil
}

func statusCase(name, method, url string, body any, token string, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			code, _, err := r.do(ctx, method, url, token, body)
			res := expect(code, err, want)
			res.Latency = time.Since(start)
			return res
		},
	}
}

func tokenCase(name, token, method, url string, body any, want int) TestCase {
	if token == "" {
		return TestCase{Name: name, Run: func(context.Context, *Runner) Result {
			return Result{Status: "SKIP", Note: "token not configured"}
		}}
	}
	return statusCase(name, method, url, body, token, want)
}

func expect(code int, err error, want int) Result {
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != want {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d want=%d", code, want)}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("status=%d", code)}
}

// concurrentAccept fires parallel accepts for the bench booking. Whether or
// not the token's technician holds the offer, at most one may succeed.
func concurrentAccept(ctx context.Context, r *Runner) Result {
	if r.bookingID == "" || r.cfg.TechnicianToken == "" {
		return Result{Status: "SKIP", Note: "needs a booking and a technician token"}
	}
	url := r.cfg.BaseURL + "/api/technician/bookings/" + r.bookingID + "/respond"
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		succ    int
		refused int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _, err := r.do(ctx, http.MethodPost, url, r.cfg.TechnicianToken, map[string]any{"action": "accept"})
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case code >= 200 && code < 300:
				succ++
			case code == http.StatusConflict:
				refused++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d conflict=%d", succ, refused)
	if succ <= 1 && succ+refused == r.cfg.Concurrency {
		return Result{Status: "PASS", Note: note}
	}
	return Result{Status: "FAIL", Note: note}
}

func perfLoad(ctx context.Context, r *Runner, method, url, token string, payload func() any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count, errCount int64
		mu              sync.Mutex
		wg              sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				code, _, err := r.do(ctx, method, url, token, payload())
				mu.Lock()
				if err != nil || code >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
