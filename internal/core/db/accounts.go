package db

import (
	"fmt"
	"strings"
	"time"
)

// CreateAccount adds an account. Usernames are unique.
func (db *DB) CreateAccount(username, email string, superuser bool) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, fmt.Errorf("username is required")
	}

	a := Account{
		Username:    username,
		Email:       email,
		IsSuperuser: superuser,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	res, err := db.db.Exec(
		"INSERT INTO accounts (username, email, is_superuser, created_at) VALUES (?, ?, ?, ?)",
		a.Username, a.Email, a.IsSuperuser, a.CreatedAt,
	)
	if err != nil {
		return Account{}, storeError("create account", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return Account{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return a, nil
}

// ListAdministrators returns every superuser account ordered by username.
func (db *DB) ListAdministrators() ([]Account, error) {
	rows, err := db.db.Query(`
		SELECT id, username, email, is_superuser, created_at
		FROM accounts
		WHERE is_superuser = 1
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list administrators: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.IsSuperuser, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
