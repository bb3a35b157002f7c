package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestActivityStoreRecord(t *testing.T) {
	ctx := context.Background()
	store := NewActivityStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO activity_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 9 || args[0] != "admin-1" || args[1] != "approve_deposit" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	})
	err := store.Record(ctx, ActivityEntry{
		ActorUserID: "admin-1",
		Action:      "approve_deposit",
		EntityType:  "deposit",
		EntityID:    "dep-1",
		OldData:     `{"status":"PENDING"}`,
		NewData:     `{"status":"APPROVED"}`,
		IPAddress:   "10.0.0.1",
		UserAgent:   "curl",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActivityStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewActivityStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM activity_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != 10 || args[1] != 5 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]activityRow) = []activityRow{{ID: "log-1", Action: "approve_deposit"}}
			return nil
		},
	})
	rows, err := store.List(ctx, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0]["action"] != "approve_deposit" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
