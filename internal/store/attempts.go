package store

// The media_attempts table is the persisted half of the media download
// limiter: one row per failed load, keyed by message id + media path.

// AddMediaAttempt records a failed load at the given unix-ms time.
func (db *DB) AddMediaAttempt(itemKey string, at int64) error {
	_, err := db.Exec(`INSERT INTO media_attempts (item_key, attempted_at) VALUES (?, ?)`, itemKey, at)
	return err
}

// MediaAttempts returns the recorded failure times for an item,
// ascending.
func (db *DB) MediaAttempts(itemKey string) ([]int64, error) {
	rows, err := db.Query(`SELECT attempted_at FROM media_attempts WHERE item_key = ? ORDER BY attempted_at ASC`, itemKey)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []int64
	for rows.Next() {
		var at int64
		if err := rows.Scan(&at); err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

// AllMediaAttempts returns every item's failure times, for loading the
// ledger on startup.
func (db *DB) AllMediaAttempts() (map[string][]int64, error) {
	rows, err := db.Query(`SELECT item_key, attempted_at FROM media_attempts ORDER BY attempted_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]int64)
	for rows.Next() {
		var key string
		var at int64
		if err := rows.Scan(&key, &at); err != nil {
			return nil, err
		}
		out[key] = append(out[key], at)
	}
	return out, rows.Err()
}

// ClearMediaAttempts drops all recorded failures for an item.
func (db *DB) ClearMediaAttempts(itemKey string) error {
	_, err := db.Exec(`DELETE FROM media_attempts WHERE item_key = ?`, itemKey)
	return err
}

// PruneMediaAttempts drops all failures recorded before the cutoff.
func (db *DB) PruneMediaAttempts(before int64) error {
	_, err := db.Exec(`DELETE FROM media_attempts WHERE attempted_at < ?`, before)
	return err
}
