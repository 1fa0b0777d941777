// Package postgres implements store.Store on PostgreSQL via the pgx stdlib
// driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
	"github.com/Shrey-Sawant/Sonder/internal/model/rating"
	"github.com/Shrey-Sawant/Sonder/internal/model/schedule"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store"
)

// Store wraps the SQL connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres, verifies the connection and applies pool limits.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// AutoMigrate creates the schema when absent.
func (s *Store) AutoMigrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            email VARCHAR(255) UNIQUE NOT NULL,
            username VARCHAR(50) UNIQUE NOT NULL,
            password VARCHAR(255) NOT NULL,
            role VARCHAR(20) NOT NULL,
            phone VARCHAR(30),
            experience INT,
            certification TEXT,
            rating DOUBLE PRECISION DEFAULT 0,
            is_available BOOLEAN DEFAULT TRUE,
            is_verified BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS chat_sessions (
            id SERIAL PRIMARY KEY,
            student_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            counsellor_id INT REFERENCES users(id) ON DELETE SET NULL,
            chat_type VARCHAR(20) NOT NULL,
            status VARCHAR(20) DEFAULT 'pending',
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS chat_messages (
            id SERIAL PRIMARY KEY,
            session_id INT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
            sender_role VARCHAR(20) NOT NULL,
            message TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS schedule_requests (
            id SERIAL PRIMARY KEY,
            student_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            counsellor_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            scheduled_time TIMESTAMPTZ NOT NULL,
            status VARCHAR(20) DEFAULT 'pending',
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS ratings (
            id SERIAL PRIMARY KEY,
            student_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            counsellor_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            rating INT NOT NULL,
            review TEXT,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_student_counsellor_rating UNIQUE (student_id, counsellor_id)
        )`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (email, username, password, role, phone, experience, certification, is_verified)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query,
		u.Email, u.Username, u.Password, u.Role, nullString(u.Phone), u.Experience, nullString(u.Certification), u.IsVerified,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}

const userColumns = `id, email, username, password, role, COALESCE(phone,''), COALESCE(experience,0),
                     COALESCE(certification,''), rating, is_available, is_verified, created_at`

func (s *Store) scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.Role, &u.Phone, &u.Experience,
		&u.Certification, &u.Rating, &u.IsAvailable, &u.IsVerified, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, store.ErrNotFound
	}
	return u, err
}

func (s *Store) UserByID(ctx context.Context, id int64) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) UserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (s *Store) UsersByRole(ctx context.Context, role string) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.Role, &u.Phone, &u.Experience,
			&u.Certification, &u.Rating, &u.IsAvailable, &u.IsVerified, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) MarkVerified(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_verified = TRUE WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindOrCreateSession(ctx context.Context, sess chat.Session) (chat.Session, bool, error) {
	find := `SELECT id, student_id, COALESCE(counsellor_id,0), chat_type, status, created_at
             FROM chat_sessions
             WHERE student_id = $1 AND COALESCE(counsellor_id,0) = $2 AND chat_type = $3 AND status <> 'closed'
             ORDER BY id LIMIT 1`
	existing, err := s.scanSession(s.db.QueryRowContext(ctx, find, sess.StudentID, sess.CounsellorID, sess.ChatType))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return chat.Session{}, false, err
	}

	insert := `INSERT INTO chat_sessions (student_id, counsellor_id, chat_type, status)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at`
	err = s.db.QueryRowContext(ctx, insert,
		sess.StudentID, nullID(sess.CounsellorID), sess.ChatType, sess.Status,
	).Scan(&sess.ID, &sess.CreatedAt)
	if err != nil {
		return chat.Session{}, false, err
	}
	return sess, true, nil
}

func (s *Store) scanSession(row *sql.Row) (chat.Session, error) {
	var sess chat.Session
	err := row.Scan(&sess.ID, &sess.StudentID, &sess.CounsellorID, &sess.ChatType, &sess.Status, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Session{}, store.ErrNotFound
	}
	return sess, err
}

func (s *Store) SessionByID(ctx context.Context, id int64) (chat.Session, error) {
	query := `SELECT id, student_id, COALESCE(counsellor_id,0), chat_type, status, created_at
              FROM chat_sessions WHERE id = $1`
	return s.scanSession(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) SessionsForUser(ctx context.Context, principal user.User) ([]chat.SessionSummary, error) {
	query := `SELECT s.id, s.student_id, COALESCE(s.counsellor_id,0), s.chat_type, s.status, s.created_at,
                     u.username, COALESCE(m.message,''), COALESCE(m.created_at, s.created_at)
              FROM chat_sessions s
              JOIN users u ON u.id = s.student_id
              LEFT JOIN LATERAL (
                  SELECT message, created_at FROM chat_messages
                  WHERE session_id = s.id
                  ORDER BY created_at DESC, id DESC LIMIT 1
              ) m ON TRUE`

	args := []any{}
	switch principal.Role {
	case user.RoleStudent:
		query += ` WHERE s.student_id = $1`
		args = append(args, principal.ID)
	case user.RoleCounsellor:
		query += ` WHERE s.counsellor_id = $1`
		args = append(args, principal.ID)
	}
	query += ` ORDER BY COALESCE(m.created_at, s.created_at) DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []chat.SessionSummary
	for rows.Next() {
		var sum chat.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.StudentID, &sum.CounsellorID, &sum.ChatType, &sum.Status,
			&sum.CreatedAt, &sum.StudentName, &sum.LastMessage, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *Store) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	query := `INSERT INTO chat_messages (session_id, sender_role, message)
              VALUES ($1, $2, $3)
              RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, m.SessionID, m.SenderRole, m.Message).Scan(&m.ID, &m.CreatedAt)
	if isForeignKeyViolation(err) {
		return chat.Message{}, store.ErrNotFound
	}
	if err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func (s *Store) Messages(ctx context.Context, sessionID int64) ([]chat.Message, error) {
	if _, err := s.SessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	query := `SELECT id, session_id, sender_role, message, created_at
              FROM chat_messages
              WHERE session_id = $1
              ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]chat.Message, 0, 32)
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.SenderRole, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Store) CreateRequest(ctx context.Context, r schedule.Request) (schedule.Request, error) {
	query := `INSERT INTO schedule_requests (student_id, counsellor_id, scheduled_time, status)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, r.StudentID, r.CounsellorID, r.ScheduledTime, r.Status).
		Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return schedule.Request{}, err
	}
	return r, nil
}

func (s *Store) RequestsForUser(ctx context.Context, principal user.User) ([]schedule.Request, error) {
	query := `SELECT id, student_id, counsellor_id, scheduled_time, status, created_at FROM schedule_requests`
	args := []any{}
	switch principal.Role {
	case user.RoleStudent:
		query += ` WHERE student_id = $1`
		args = append(args, principal.ID)
	case user.RoleCounsellor:
		query += ` WHERE counsellor_id = $1`
		args = append(args, principal.ID)
	}
	query += ` ORDER BY scheduled_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []schedule.Request
	for rows.Next() {
		var r schedule.Request
		if err := rows.Scan(&r.ID, &r.StudentID, &r.CounsellorID, &r.ScheduledTime, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id int64, status string) (schedule.Request, error) {
	query := `UPDATE schedule_requests SET status = $1 WHERE id = $2
              RETURNING id, student_id, counsellor_id, scheduled_time, status, created_at`
	var r schedule.Request
	err := s.db.QueryRowContext(ctx, query, status, id).
		Scan(&r.ID, &r.StudentID, &r.CounsellorID, &r.ScheduledTime, &r.Status, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Request{}, store.ErrNotFound
	}
	if err != nil {
		return schedule.Request{}, err
	}
	return r, nil
}

func (s *Store) BusySlots(ctx context.Context, counsellorID int64, day time.Time) ([]string, error) {
	query := `SELECT to_char(scheduled_time, 'HH24:MI')
              FROM schedule_requests
              WHERE counsellor_id = $1 AND scheduled_time::date = $2::date AND status <> 'declined'
              ORDER BY scheduled_time`
	rows, err := s.db.QueryContext(ctx, query, counsellorID, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *Store) CreateRating(ctx context.Context, r rating.Rating) (rating.Rating, error) {
	query := `INSERT INTO ratings (student_id, counsellor_id, rating, review)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, r.StudentID, r.CounsellorID, r.Rating, nullString(r.Review)).
		Scan(&r.ID, &r.CreatedAt)
	if isUniqueViolation(err) {
		return rating.Rating{}, store.ErrDuplicate
	}
	if err != nil {
		return rating.Rating{}, err
	}
	return r, nil
}

func (s *Store) RatingsForCounsellor(ctx context.Context, counsellorID int64) ([]rating.Rating, error) {
	query := `SELECT id, student_id, counsellor_id, rating, COALESCE(review,''), created_at
              FROM ratings WHERE counsellor_id = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, counsellorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []rating.Rating
	for rows.Next() {
		var r rating.Rating
		if err := rows.Scan(&r.ID, &r.StudentID, &r.CounsellorID, &r.Rating, &r.Review, &r.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
