package store

import "time"

// Template is a canned reply the operator can insert into the composer.
type Template struct {
	ID        int64
	Title     string
	Body      string
	CreatedAt int64
}

// AddTemplate stores a new message template.
func (db *DB) AddTemplate(title, body string) (int64, error) {
	res, err := db.Exec(`INSERT INTO templates (title, body, created_at) VALUES (?, ?, ?)`,
		title, body, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListTemplates returns all templates, oldest first.
func (db *DB) ListTemplates() ([]Template, error) {
	rows, err := db.Query(`SELECT id, title, body, created_at FROM templates ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Template
	for rows.Next() {
		var tpl Template
		if err := rows.Scan(&tpl.ID, &tpl.Title, &tpl.Body, &tpl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// DeleteTemplate removes a template by id.
func (db *DB) DeleteTemplate(id int64) error {
	_, err := db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	return err
}
