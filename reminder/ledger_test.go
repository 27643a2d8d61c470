package reminder

import (
	"context"
	"path/filepath"
	"testing"
)

func TestKeyString(t *testing.T) {
	k := Key{TaskID: "t1", DueDate: "2026-08-20"}
	if got := k.String(); got != "notified_t1_2026-08-20" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRedisLedgerMarkAndForget(t *testing.T) {
	ledger, client := newTestLedger(t)
	ctx := context.Background()
	key := Key{TaskID: "t1", DueDate: "2026-08-20"}

	newly, err := ledger.Mark(ctx, "owner", key)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !newly {
		t.Fatal("expected first mark to be newly recorded")
	}

	newly, err = ledger.Mark(ctx, "owner", key)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if newly {
		t.Fatal("expected second mark to be a duplicate")
	}

	// Another owner's ledger is independent.
	newly, err = ledger.Mark(ctx, "other", key)
	if err != nil {
		t.Fatalf("other owner mark: %v", err)
	}
	if !newly {
		t.Fatal("expected per-owner namespacing")
	}

	exists, err := client.Exists(ctx, "owner:notified_t1_2026-08-20").Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 1 {
		t.Fatal("expected namespaced redis key")
	}

	if err := ledger.Forget(ctx, "owner", key); err != nil {
		t.Fatalf("forget: %v", err)
	}
	newly, err = ledger.Mark(ctx, "owner", key)
	if err != nil {
		t.Fatalf("mark after forget: %v", err)
	}
	if !newly {
		t.Fatal("expected forget to release the marker")
	}
}

func TestSQLiteLedgerSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()
	key := Key{TaskID: "t1", DueDate: "2026-08-20"}

	ledger, err := OpenSQLiteLedger(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	newly, err := ledger.Mark(ctx, "owner", key)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !newly {
		t.Fatal("expected first mark to be newly recorded")
	}
	if err := ledger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLiteLedger(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		if cerr := reopened.Close(); cerr != nil {
			t.Logf("close: %v", cerr)
		}
	})

	newly, err = reopened.Mark(ctx, "owner", key)
	if err != nil {
		t.Fatalf("mark after reopen: %v", err)
	}
	if newly {
		t.Fatal("expected marker to survive a restart")
	}

	if err := reopened.Forget(ctx, "owner", key); err != nil {
		t.Fatalf("forget: %v", err)
	}
	newly, err = reopened.Mark(ctx, "owner", key)
	if err != nil {
		t.Fatalf("mark after forget: %v", err)
	}
	if !newly {
		t.Fatal("expected forget to release the marker")
	}
}
