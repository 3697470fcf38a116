package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLDropsComments(t *testing.T) {
	stmts := splitSQL("-- header\nCREATE TABLE a (id INT);\n\n-- next\nCREATE INDEX b ON a (id);\n")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INT)", stmts[0])
}

func TestExtractTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE IF NOT EXISTS vehicles (id INT);\ncreate table if not exists coupons (id INT);"), 0o600))
	tables, err := extractTables(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"vehicles", "coupons"}, tables)
}

func TestHTTPCaseStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/reservations/r1" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewRunner(Config{BaseURL: srv.URL})
	ctx := context.Background()

	get := httpCase("get", http.MethodGet, reservationPath("/api/reservations/", ""), nil, "", http.StatusOK)
	assert.Equal(t, statusFail, get.Run(ctx, r).Status, "no reservation yet")

	r.reservationID = "r1"
	assert.Equal(t, statusPass, get.Run(ctx, r).Status)

	missing := httpCase("missing", http.MethodGet, fixed("/nope"), nil, "", http.StatusOK)
	assert.Equal(t, statusFail, missing.Run(ctx, r).Status)

	staff := httpCase("staff", http.MethodPost, fixed("/api/staff/x"), nil, "staff", http.StatusOK)
	assert.Equal(t, statusSkip, staff.Run(ctx, r).Status)
}
