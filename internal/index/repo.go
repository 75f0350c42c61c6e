package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	ID         string   `json:"id"`
	UID        string   `json:"uid,omitempty"`
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Date       string   `json:"date,omitempty"`
	Category   string   `json:"category,omitempty"`
	Tags       []string `json:"tags"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Image      string   `json:"image,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	OS         string   `json:"os,omitempty"`
}

// TagRow represents a row in the tags table.
type TagRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Replace swaps the whole catalog for posts and tags and records the
// document checksums it was built from, within one transaction.
func (db *DB) Replace(checksums map[string]string, posts []PostRow, tags []TagRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, q := range []string{`DELETE FROM posts`, `DELETE FROM tags`, `DELETE FROM documents`} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("index: clear: %w", err)
		}
	}
	if err := ftsClear(tx); err != nil {
		return err
	}

	now := time.Now().UTC()
	for path, sum := range checksums {
		if _, err := tx.Exec(`INSERT INTO documents (path, checksum, updated_at) VALUES (?, ?, ?)`, path, sum, now); err != nil {
			return fmt.Errorf("index: insert document: %w", err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO posts (id, uid, position, title, link, date, category, tags, excerpt, image, difficulty, os)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("index: prepare post insert: %w", err)
	}
	defer stmt.Close()
	for i, p := range posts {
		tagsJSON, _ := json.Marshal(nonNil(p.Tags))
		if _, err := stmt.Exec(p.ID, p.UID, i, p.Title, p.Link, p.Date, p.Category, string(tagsJSON),
			p.Excerpt, p.Image, p.Difficulty, p.OS); err != nil {
			return fmt.Errorf("index: insert post: %w", err)
		}
		if err := ftsInsert(tx, p); err != nil {
			return err
		}
	}

	for _, t := range tags {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO tags (name, count, color) VALUES (?, ?, ?)`, t.Name, t.Count, t.Color); err != nil {
			return fmt.Errorf("index: insert tag: %w", err)
		}
	}
	return tx.Commit()
}

// AllChecksums returns the checksum of every document the index was built from.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const postColumns = `id, uid, title, link, date, category, tags, excerpt, image, difficulty, os`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (PostRow, error) {
	var p PostRow
	var tagsJSON string
	if err := s.Scan(&p.ID, &p.UID, &p.Title, &p.Link, &p.Date, &p.Category, &tagsJSON,
		&p.Excerpt, &p.Image, &p.Difficulty, &p.OS); err != nil {
		return p, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	p.Tags = nonNil(p.Tags)
	return p, nil
}

// ListPosts returns posts newest first, optionally restricted to one tag,
// together with the total number of matching posts.
func (db *DB) ListPosts(tag string, limit, offset int) ([]PostRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := "", []any{}
	if tag != "" {
		where = `WHERE tags LIKE ?`
		quoted, _ := json.Marshal(tag)
		args = append(args, "%"+string(quoted)+"%")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+postColumns+` FROM posts `+where+` ORDER BY position LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	out := []PostRow{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetPost returns one post by id or uid.
func (db *DB) GetPost(id string) (*PostRow, error) {
	row := db.conn.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ? OR (uid != '' AND uid = ?) LIMIT 1`, id, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: post %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return &p, nil
}

// Tags returns the tag aggregate ordered by name.
func (db *DB) Tags() ([]TagRow, error) {
	rows, err := db.conn.Query(`SELECT name, count, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()
	out := []TagRow{}
	for rows.Next() {
		var t TagRow
		if err := rows.Scan(&t.Name, &t.Count, &t.Color); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
