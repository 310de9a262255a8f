package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestNewCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	db, err := New(dir)
	if err != nil {
		t.Fatalf("Unexpected error returned from New (%v)", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "sheetsdemo.db")); err != nil {
		t.Errorf("Expected database file: %v", err)
	}
}

func TestLastSignedInAccountEmpty(t *testing.T) {
	db := newTestDB(t)

	account, err := db.LastSignedInAccount()
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	if account != nil {
		t.Errorf("Expected no account, got %+v", account)
	}
}

func TestSaveAccountUpserts(t *testing.T) {
	db := newTestDB(t)

	first := Account{
		Email:       "ann@example.com",
		DisplayName: "Ann",
		Token:       `{"access_token":"one"}`,
		SignedInAt:  "2026-10-01T09:00:00Z",
	}
	if err := db.SaveAccount(&first); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("Expected account ID to be set")
	}

	again := Account{
		Email:       "ann@example.com",
		DisplayName: "Ann B",
		Token:       `{"access_token":"two"}`,
		SignedInAt:  "2026-10-02T09:00:00Z",
	}
	if err := db.SaveAccount(&again); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("Expected upsert to keep ID %d, got %d", first.ID, again.ID)
	}

	got, err := db.LastSignedInAccount()
	if err != nil {
		t.Fatalf("LastSignedInAccount failed: %v", err)
	}
	if !reflect.DeepEqual(*got, again) {
		t.Errorf("Incorrect account\n   expected: %+v\n   got:      %+v", again, *got)
	}
}

func TestSaveAccountForgetsOtherAccounts(t *testing.T) {
	db := newTestDB(t)

	accounts := []Account{
		{Email: "ann@example.com", Token: "{}", SignedInAt: "2026-09-01T00:00:00Z"},
		{Email: "bob@example.com", Token: "{}", SignedInAt: "2026-10-01T00:00:00Z"},
	}
	for i := range accounts {
		if err := db.SaveAccount(&accounts[i]); err != nil {
			t.Fatalf("SaveAccount failed: %v", err)
		}
	}

	got, err := db.LastSignedInAccount()
	if err != nil {
		t.Fatalf("LastSignedInAccount failed: %v", err)
	}
	if got == nil || got.Email != "bob@example.com" {
		t.Errorf("Expected bob@example.com, got %+v", got)
	}

	if err := db.DeleteAccount("bob@example.com"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	got, err = db.LastSignedInAccount()
	if err != nil {
		t.Fatalf("LastSignedInAccount failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no account after deleting the last one, got %+v", got)
	}
}

func TestDeleteAccount(t *testing.T) {
	db := newTestDB(t)

	account := Account{Email: "ann@example.com", Token: "{}", SignedInAt: "2026-10-01T00:00:00Z"}
	if err := db.SaveAccount(&account); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}

	if err := db.DeleteAccount("ann@example.com"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	// deleting twice is not an error
	if err := db.DeleteAccount("ann@example.com"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	got, err := db.LastSignedInAccount()
	if err != nil {
		t.Fatalf("LastSignedInAccount failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no account after delete, got %+v", got)
	}
}
