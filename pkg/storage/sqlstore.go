package storage

import (
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "shareadmin/pkg/errors"
	"shareadmin/pkg/protocol"
)

// sqlStore implements Store on top of database/sql. Both backends accept
// `?` placeholders and backtick-quoted identifiers, so every query below
// is shared; only the schema differs per dialect.
type sqlStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// -- User operations --

func (s *sqlStore) CreateUser(u *protocol.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Role, passwordHash, u.CreatedAt,
	)
	if err != nil && isDuplicateErr(err) {
		return apperrors.ErrDuplicateEmail
	}
	return err
}

func (s *sqlStore) GetUser(id string) (*protocol.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT id, email, name, role, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *sqlStore) GetUserByEmail(email string) (*protocol.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u protocol.User
	var hash string
	err := s.db.QueryRow(
		`SELECT id, email, name, role, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &hash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (s *sqlStore) GetAllUsers() ([]*protocol.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, email, name, role, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*protocol.User
	for rows.Next() {
		var u protocol.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *sqlStore) UpdateUser(id string, name, role *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{}
	args := []any{}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *role)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.Exec(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return checkAffected(res, apperrors.ErrUserNotFound)
}

func (s *sqlStore) UpdateUserPassword(id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return err
	}
	return checkAffected(res, apperrors.ErrUserNotFound)
}

func (s *sqlStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, id); err != nil {
		return err
	}
	return checkAffected(res, apperrors.ErrUserNotFound)
}

// -- Folder operations --

func (s *sqlStore) CreateFolder(f *protocol.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO folders (id, name, owner_id, shared, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.OwnerID, f.Shared, f.CreatedAt,
	)
	return err
}

func (s *sqlStore) GetFolder(id string) (*protocol.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var f protocol.Folder
	err := s.db.QueryRow(
		`SELECT id, name, owner_id, shared, created_at FROM folders WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.OwnerID, &f.Shared, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *sqlStore) GetAllFolders() ([]*protocol.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name, owner_id, shared, created_at FROM folders ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*protocol.Folder
	for rows.Next() {
		var f protocol.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.OwnerID, &f.Shared, &f.CreatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

func (s *sqlStore) UpdateFolder(id string, name *string, shared *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{}
	args := []any{}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if shared != nil {
		sets = append(sets, "shared = ?")
		args = append(args, *shared)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.Exec(`UPDATE folders SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return checkAffected(res, apperrors.ErrFolderNotFound)
}

func (s *sqlStore) DeleteFolder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, apperrors.ErrFolderNotFound)
}

// -- Session operations --

func (s *sqlStore) SaveSession(rec *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Re-login from a known device replaces that device's session.
	if _, err := tx.Exec(
		`DELETE FROM sessions WHERE user_id = ? AND device_id = ?`, rec.UserID, rec.DeviceID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions (id, user_id, device_id, device_name, platform, token_hash, created_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.DeviceID, rec.DeviceName, rec.Platform, rec.TokenHash, rec.CreatedAt, rec.LastSeenAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) GetSessionByTokenHash(hash string) (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, user_id, device_id, device_name, platform, token_hash, created_at, last_seen_at
		 FROM sessions WHERE token_hash = ?`, hash)
	return scanSession(row)
}

func (s *sqlStore) GetUserSessions(userID string) ([]*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySessions(`SELECT id, user_id, device_id, device_name, platform, token_hash, created_at, last_seen_at
		 FROM sessions WHERE user_id = ? ORDER BY created_at`, userID)
}

func (s *sqlStore) CountUserSessions(userID, excludeDeviceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND device_id != ?`, userID, excludeDeviceID,
	).Scan(&count)
	return count, err
}

func (s *sqlStore) TouchSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE sessions SET last_seen_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

func (s *sqlStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, apperrors.ErrSessionNotFound)
}

func (s *sqlStore) DeleteOtherSessions(userID, keepDeviceID string) ([]*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	victims, err := s.querySessions(
		`SELECT id, user_id, device_id, device_name, platform, token_hash, created_at, last_seen_at
		 FROM sessions WHERE user_id = ? AND device_id != ?`, userID, keepDeviceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(
		`DELETE FROM sessions WHERE user_id = ? AND device_id != ?`, userID, keepDeviceID,
	); err != nil {
		return nil, err
	}
	return victims, nil
}

func (s *sqlStore) DeleteUserSessions(userID string) ([]*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	victims, err := s.querySessions(
		`SELECT id, user_id, device_id, device_name, platform, token_hash, created_at, last_seen_at
		 FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	return victims, nil
}

// -- Settings operations --

func (s *sqlStore) GetSetting(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE `key` = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrSettingNotFound
	}
	return value, err
}

func (s *sqlStore) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM settings WHERE `key` = ?", key); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO settings (`key`, value, updated_at) VALUES (?, ?, ?)", key, value, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) DeleteSetting(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM settings WHERE `key` = ?", key)
	return err
}

// Close closes the underlying database.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// -- helpers --

func (s *sqlStore) querySessions(query string, args ...any) ([]*SessionRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.DeviceID, &rec.DeviceName, &rec.Platform,
			&rec.TokenHash, &rec.CreatedAt, &rec.LastSeenAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &rec)
	}
	return sessions, rows.Err()
}

func scanUser(row *sql.Row) (*protocol.User, error) {
	var u protocol.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanSession(row *sql.Row) (*SessionRecord, error) {
	var rec SessionRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.DeviceID, &rec.DeviceName, &rec.Platform,
		&rec.TokenHash, &rec.CreatedAt, &rec.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func checkAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isDuplicateErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
