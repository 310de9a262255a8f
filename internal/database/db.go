package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type DB struct {
	conn *sql.DB
}

func New(dataDir string) (*DB, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sheetsdemo.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db.conn, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Account is a previously authorised Google account. Token holds the
// JSON-encoded oauth2 token.
type Account struct {
	ID          int64
	Email       string
	DisplayName string
	Token       string
	SignedInAt  string
}

// SaveAccount makes account the only remembered account. An existing row
// for the same email keeps its ID.
func (db *DB) SaveAccount(account *Account) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM accounts WHERE email <> ?`, account.Email); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO accounts (email, display_name, token, signed_in_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			display_name = excluded.display_name,
			token        = excluded.token,
			signed_in_at = excluded.signed_in_at
	`, account.Email, account.DisplayName, account.Token, account.SignedInAt)
	if err != nil {
		return err
	}

	if err := tx.QueryRow(`SELECT id FROM accounts WHERE email = ?`, account.Email).Scan(&account.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// LastSignedInAccount returns the remembered account, or nil if nobody is
// signed in.
func (db *DB) LastSignedInAccount() (*Account, error) {
	var account Account
	err := db.conn.QueryRow(`
		SELECT id, email, display_name, token, signed_in_at
		FROM accounts
		ORDER BY signed_in_at DESC, id DESC
		LIMIT 1
	`).Scan(&account.ID, &account.Email, &account.DisplayName, &account.Token, &account.SignedInAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (db *DB) DeleteAccount(email string) error {
	_, err := db.conn.Exec(`DELETE FROM accounts WHERE email = ?`, email)
	return err
}
