// README: Bench cases covering environment, quotes, reservations, concurrency and throughput.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"autorent/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"

	benchVehicleSlug = "bench-coupe"
	benchCoupon      = "BENCH16"
	benchEmail       = "bench@example.com"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	vehicleID     int64
	reservationID string
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
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusFail, Note: "db not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: statusFail, Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: tablesExist},
		{Name: "Seed: vehicle, coupon and tax rate", Run: seed},

		httpCase("API: health", http.MethodGet, fixed("/health"), nil, "", http.StatusOK),
		httpCase("API: metrics", http.MethodGet, fixed("/metrics"), nil, "", http.StatusOK),
		httpCase("API: list vehicles", http.MethodGet, fixed("/api/vehicles"), nil, "", http.StatusOK),

		// Quotes
		{Name: "Quote: rental with coupon", Run: rentalQuote},
		httpCase("Quote: missing tax zip -> 400", http.MethodPost, fixed("/api/quotes/rental"), func(r *Runner) any {
			return map[string]any{"vehicle_id": r.vehicleID, "num_days": 3}
		}, "", http.StatusBadRequest),
		httpCase("Quote: public override -> 403", http.MethodPost, fixed("/api/quotes/rental"), func(r *Runner) any {
			return map[string]any{"vehicle_id": r.vehicleID, "num_days": 3, "tax_zip": r.cfg.TaxZip, "override_subtotal": 1}
		}, "", http.StatusForbidden),
		httpCase("Quote: unknown vehicle -> 404", http.MethodPost, fixed("/api/quotes/rental"), func(r *Runner) any {
			return map[string]any{"vehicle_id": 999999999, "num_days": 3, "tax_zip": r.cfg.TaxZip}
		}, "", http.StatusNotFound),
		httpCase("Quote: joy ride", http.MethodPost, fixed("/api/quotes/joy-ride"), func(r *Runner) any {
			return map[string]any{"num_passengers": 2, "tax_zip": r.cfg.TaxZip}
		}, "", http.StatusOK),
		httpCase("Quote: performance experience", http.MethodPost, fixed("/api/quotes/performance-experience"), func(r *Runner) any {
			return map[string]any{"num_drivers": 2, "num_passengers": 3, "tax_zip": r.cfg.TaxZip}
		}, "", http.StatusOK),
		httpCase("Quote: joy ride with drivers -> 400", http.MethodPost, fixed("/api/quotes/joy-ride"), func(r *Runner) any {
			return map[string]any{"num_drivers": 1, "num_passengers": 2, "tax_zip": r.cfg.TaxZip}
		}, "", http.StatusBadRequest),

		// Reservations
		{Name: "Reservation: create", Run: createReservation},
		httpCase("Reservation: get", http.MethodGet, reservationPath("/api/reservations/", ""), nil, "", http.StatusOK),
		httpCase("Reservation: cancel with wrong email -> 404", http.MethodPost, reservationPath("/api/reservations/", "/cancel"), func(r *Runner) any {
			return map[string]any{"email": "someone-else@example.com"}
		}, "", http.StatusNotFound),
		{Name: "Concurrency: parallel staff confirm", Run: concurrentConfirm},
		httpCase("Reservation: staff complete", http.MethodPost, reservationPath("/api/staff/reservations/", "/complete"), nil, "staff", http.StatusOK),
		// sent with the staff flag only so it skips along with the complete case
		httpCase("Reservation: cancel completed -> 409", http.MethodPost, reservationPath("/api/reservations/", "/cancel"), func(r *Runner) any {
			return map[string]any{"email": benchEmail}
		}, "staff", http.StatusConflict),
		httpCase("Staff: route without token -> 401", http.MethodGet, fixed("/api/staff/promotions"), nil, "", http.StatusUnauthorized),

		// Performance
		{Name: "Perf: rental quote throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, r.cfg.BaseURL+"/api/quotes/rental", map[string]any{
				"vehicle_id":  r.vehicleID,
				"num_days":    3,
				"coupon_code": benchCoupon,
				"tax_zip":     r.cfg.TaxZip,
			})
		}},
	}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}
	return Result{Status: statusPass}
}

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
}

// seed inserts a 300/day vehicle with a 10% three-day discount, a flat 16
// coupon and a fresh 6.625% rate for the bench postal code.
func seed(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	if !r.cfg.Seed {
		err := r.db.QueryRow(ctx, `SELECT id FROM vehicles WHERE slug = $1`, benchVehicleSlug).Scan(&r.vehicleID)
		if err != nil {
			return Result{Status: statusFail, Note: "seed=false and bench vehicle missing: " + err.Error()}
		}
		return Result{Status: statusSkip, Note: "seed=false"}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO vehicles (slug, name, price_per_day, discount_3_day, security_deposit, miles_included)
		VALUES ($1, 'Bench Coupe', 300, 10, 2500, 100)
		ON CONFLICT (slug) DO UPDATE SET price_per_day = 300, discount_2_day = NULL, discount_3_day = 10, discount_7_day = NULL
		RETURNING id`, benchVehicleSlug).Scan(&r.vehicleID)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM coupons WHERE UPPER(code) = $1`, benchCoupon); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO coupons (code, name, amount, end_date)
		VALUES ($1, 'Bench coupon', 16, CURRENT_DATE + 365)`, benchCoupon); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO tax_rates (postal_code, total_rate, source, date_updated)
		VALUES ($1, 0.06625, 'api', NOW())
		ON CONFLICT (postal_code) DO UPDATE SET total_rate = 0.06625, source = 'api', date_updated = NOW()`, r.cfg.TaxZip); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if r.redis != nil {
		_ = r.redis.Del(ctx, "taxrate:"+r.cfg.TaxZip).Err()
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("vehicle_id=%d", r.vehicleID)}
}

// rentalQuote checks the seeded numbers: 900 base, 90 multi-day, 16 coupon,
// 6.625% tax on 794.
func rentalQuote(ctx context.Context, r *Runner) Result {
	var out struct {
		Subtotal     string `json:"subtotal"`
		TotalWithTax string `json:"total_with_tax"`
	}
	res := r.call(ctx, http.MethodPost, "/api/quotes/rental", map[string]any{
		"vehicle_id":  r.vehicleID,
		"num_days":    3,
		"coupon_code": strings.ToLower(benchCoupon),
		"tax_zip":     r.cfg.TaxZip,
	}, "", http.StatusOK, &out)
	if res.Status != statusPass {
		return res
	}
	if out.Subtotal != "794.00" || out.TotalWithTax != "846.60" {
		res.Status = statusFail
		res.Note = fmt.Sprintf("subtotal=%s total=%s (an active promotion larger than the coupon changes these)", out.Subtotal, out.TotalWithTax)
	}
	return res
}

func createReservation(ctx context.Context, r *Runner) Result {
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	res := r.call(ctx, http.MethodPost, "/api/reservations", map[string]any{
		"vehicle_id":  r.vehicleID,
		"email":       benchEmail,
		"start_date":  time.Now().AddDate(0, 0, 7).Format(types.DateLayout),
		"num_days":    3,
		"coupon_code": benchCoupon,
		"tax_zip":     r.cfg.TaxZip,
	}, "", http.StatusCreated, &out)
	if res.Status == statusPass {
		r.reservationID = out.ID
		if out.Status != "pending" {
			res.Status = statusFail
			res.Note = "status=" + out.Status
		}
	}
	return res
}

// concurrentConfirm fires parallel confirms at one pending reservation; the
// optimistic status version must let exactly one through.
func concurrentConfirm(ctx context.Context, r *Runner) Result {
	if r.cfg.StaffToken == "" {
		return Result{Status: statusSkip, Note: "no staff token"}
	}
	if r.reservationID == "" {
		return Result{Status: statusFail, Note: "no reservation created"}
	}
	url := r.cfg.BaseURL + "/api/staff/reservations/" + r.reservationID + "/confirm"
	var wg sync.WaitGroup
	var mu sync.Mutex
	succ, conflicts := 0, 0

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
			req.Header.Set("Authorization", "Bearer "+r.cfg.StaffToken)
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case resp.StatusCode == http.StatusOK:
				succ++
			case resp.StatusCode == http.StatusConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d conflict=%d", succ, conflicts)
	if succ == 1 {
		return Result{Status: statusPass, Note: note}
	}
	return Result{Status: statusFail, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount, non2xx int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				mu.Lock()
				if err != nil {
					errCount++
					mu.Unlock()
					continue
				}
				count++
				if resp.StatusCode >= 300 {
					non2xx++
				}
				mu.Unlock()
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	res := Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d non2xx=%d", rps, errCount, non2xx)}
	if non2xx > 0 {
		res.Status = statusFail
	}
	return res
}

// httpCase builds a request case. path and body are evaluated at run time so
// they can use the seeded ids. auth "staff" sends the staff token and skips
// the case when none is configured.
func httpCase(name, method string, path func(*Runner) (string, bool), body func(*Runner) any, auth string, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			p, ok := path(r)
			if !ok {
				return Result{Status: statusFail, Note: "no reservation created"}
			}
			var payload any
			if body != nil {
				payload = body(r)
			}
			return r.call(ctx, method, p, payload, auth, want, nil)
		},
	}
}

func fixed(path string) func(*Runner) (string, bool) {
	return func(*Runner) (string, bool) { return path, true }
}

func reservationPath(prefix, suffix string) func(*Runner) (string, bool) {
	return func(r *Runner) (string, bool) {
		return prefix + r.reservationID + suffix, r.reservationID != ""
	}
}

func (r *Runner) call(ctx context.Context, method, path string, payload any, auth string, want int, out any) Result {
	var reader io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if auth == "staff" {
		if r.cfg.StaffToken == "" {
			return Result{Status: statusSkip, Note: "no staff token"}
		}
		req.Header.Set("Authorization", "Bearer "+r.cfg.StaffToken)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	latency := time.Since(start)

	if resp.StatusCode != want {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d body=%s", resp.StatusCode, truncate(string(body), 120))}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return Result{Status: statusFail, Latency: latency, Note: err.Error()}
		}
	}
	return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
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
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
