package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)
	res, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Error("second migrate reported changes")
	}
}

func TestKVRoundTrip(t *testing.T) {
	db := testDB(t)

	if v, err := db.GetKV(KeySessionToken); err != nil || v != "" {
		t.Fatalf("unset key: got (%q, %v), want empty", v, err)
	}

	if err := db.SetKV(KeySessionToken, "tok-1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetKV(KeySessionToken, "tok-2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetKV(KeySessionToken)
	if err != nil {
		t.Fatal(err)
	}
	if v != "tok-2" {
		t.Errorf("got %q, want tok-2", v)
	}
}

func TestClearSession(t *testing.T) {
	db := testDB(t)
	_ = db.SetKV(KeySessionToken, "tok")
	_ = db.SetKV(KeyCurrentUser, `{"id":"u1"}`)
	_ = db.SetKV(KeyAIContext, "support agent for acme")

	if err := db.ClearSession(); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.GetKV(KeySessionToken); v != "" {
		t.Error("token survived ClearSession")
	}
	if v, _ := db.GetKV(KeyCurrentUser); v != "" {
		t.Error("user snapshot survived ClearSession")
	}
	// Unrelated keys are untouched.
	if v, _ := db.GetKV(KeyAIContext); v == "" {
		t.Error("ai context should survive ClearSession")
	}
}

func TestTemplates(t *testing.T) {
	db := testDB(t)

	id, err := db.AddTemplate("greeting", "Hello, how can I help?")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddTemplate("closing", "Anything else?"); err != nil {
		t.Fatal(err)
	}

	tpls, err := db.ListTemplates()
	if err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 2 || tpls[0].Title != "greeting" {
		t.Fatalf("got %d templates, want 2 with greeting first", len(tpls))
	}

	if err := db.DeleteTemplate(id); err != nil {
		t.Fatal(err)
	}
	tpls, _ = db.ListTemplates()
	if len(tpls) != 1 || tpls[0].Title != "closing" {
		t.Errorf("after delete: %+v", tpls)
	}
}

func TestMediaAttempts(t *testing.T) {
	db := testDB(t)

	key := "m1:/media/a.jpg"
	for _, at := range []int64{1000, 2000, 3000} {
		if err := db.AddMediaAttempt(key, at); err != nil {
			t.Fatal(err)
		}
	}
	_ = db.AddMediaAttempt("other", 1500)

	got, err := db.MediaAttempts(key)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 1000 || got[2] != 3000 {
		t.Errorf("attempts = %v", got)
	}

	if err := db.PruneMediaAttempts(2000); err != nil {
		t.Fatal(err)
	}
	got, _ = db.MediaAttempts(key)
	if len(got) != 2 {
		t.Errorf("after prune: %v", got)
	}

	if err := db.ClearMediaAttempts(key); err != nil {
		t.Fatal(err)
	}
	got, _ = db.MediaAttempts(key)
	if len(got) != 0 {
		t.Errorf("after clear: %v", got)
	}
	all, _ := db.AllMediaAttempts()
	if len(all["other"]) != 1 {
		t.Errorf("other item affected: %v", all)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	db := testDB(t)

	entry := &OutboxEntry{
		ClientMsgID: "c1",
		ChatID:      "chat1",
		OrgPhoneID:  "p1",
		RemoteID:    "555@remote",
		Body:        "hello",
	}
	if err := db.QueueOutbox(entry); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Status != "queued" || pending[0].RemoteID != "555@remote" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := db.MarkOutboxSending("c1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxSent("c1", "srv-9"); err != nil {
		t.Fatal(err)
	}
	pending, _ = db.PendingOutbox()
	if len(pending) != 0 {
		t.Errorf("sent entry still pending: %+v", pending)
	}
}
