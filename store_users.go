package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
)

var (
	errUserNotFound  = errors.New("user not found")
	errEmailTaken    = errors.New("email already registered")
	errUsernameTaken = errors.New("username already taken")
)

// userColumns is the select list scanUser expects.
const userColumns = `
	u.id, u.email, u.username, COALESCE(u.first_name, ''), u.last_name, u.birth_date,
	COALESCE(u.gender, ''), COALESCE(u.preferred_gender, ''),
	u.sexual_preferences, u.interests, u.photos,
	COALESCE(u.biography, u.bio, ''), u.latitude::float8, u.longitude::float8,
	COALESCE(u.city, ''), COALESCE(u.country, ''), COALESCE(u.location_source, ''), u.location_updated_at,
	u.fame_rating, u.profile_views, u.likes_count, u.profile_completion,
	COALESCE(u.avatar_url, ''), u.last_online, u.created_at`

// haversineSQL is the great-circle distance in km from ($1, $2).
const haversineSQL = `6371 * 2 * ASIN(SQRT(
	POWER(SIN(RADIANS(u.latitude::float8 - $1) / 2), 2) +
	COS(RADIANS($1)) * COS(RADIANS(u.latitude::float8)) *
	POWER(SIN(RADIANS(u.longitude::float8 - $2) / 2), 2)))`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*discovery.User, error) {
	var (
		u          discovery.User
		birth      sql.NullTime
		lat, lon   sql.NullFloat64
		locatedAt  sql.NullTime
		lastOnline sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &birth,
		&u.Gender, &u.PreferredGender,
		&u.SexualPreferences, &u.Interests, &u.Photos,
		&u.Biography, &lat, &lon,
		&u.City, &u.Country, &u.LocationSource, &locatedAt,
		&u.FameRating, &u.ProfileViews, &u.LikesCount, &u.ProfileCompletion,
		&u.AvatarURL, &lastOnline, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if birth.Valid {
		u.BirthDate = &birth.Time
	}
	if lat.Valid && lon.Valid {
		u.Latitude, u.Longitude = &lat.Float64, &lon.Float64
	}
	if locatedAt.Valid {
		u.LocationUpdatedAt = &locatedAt.Time
	}
	if lastOnline.Valid {
		u.LastOnline = &lastOnline.Time
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]*discovery.User, error) {
	defer rows.Close()
	users := make([]*discovery.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// pgUserStore reads and writes the users table.
type pgUserStore struct {
	db  *sql.DB
	now func() time.Time
}

func newUserStore(db *sql.DB) *pgUserStore {
	return &pgUserStore{db: db, now: time.Now}
}

func (s *pgUserStore) FindByID(ctx context.Context, id int) (*discovery.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return u, nil
}

// FindNearby returns located users within radiusKm, closest first.
func (s *pgUserStore) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*discovery.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		CROSS JOIN LATERAL (SELECT `+haversineSQL+` AS distance_km) d
		WHERE u.latitude IS NOT NULL AND u.longitude IS NOT NULL
		  AND d.distance_km <= $3
		ORDER BY d.distance_km, u.id
		LIMIT $4
	`, lat, lon, radiusKm, limit)
	if err != nil {
		return nil, fmt.Errorf("find nearby users: %w", err)
	}
	return scanUsers(rows)
}

// FindAllExcept returns up to limit users other than id, most recently
// active first.
func (s *pgUserStore) FindAllExcept(ctx context.Context, id int, limit int) ([]*discovery.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.id <> $1
		ORDER BY u.last_online DESC NULLS LAST, u.id
		LIMIT $2
	`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return scanUsers(rows)
}

// FindByIDs loads a batch of users in no particular order. Unknown ids are
// skipped.
func (s *pgUserStore) FindByIDs(ctx context.Context, ids []int) ([]*discovery.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ANY($1)`, pqIntArray(ids))
	if err != nil {
		return nil, fmt.Errorf("find users by id: %w", err)
	}
	return scanUsers(rows)
}

func pqIntArray(ids []int) any {
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	return pq.Array(keys)
}

type newUser struct {
	Email           string
	Username        string
	PasswordHash    string
	FirstName       string
	LastName        string
	BirthDate       *time.Time
	Gender          string
	PreferredGender string
}

// CreateUser inserts a user and returns its id. Unique violations map to
// errEmailTaken or errUsernameTaken.
func (s *pgUserStore) CreateUser(ctx context.Context, nu newUser) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password, first_name, last_name, birth_date, gender, preferred_gender, last_online)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
		RETURNING id
	`, nu.Email, nu.Username, nu.PasswordHash, nu.FirstName, nu.LastName,
		nu.BirthDate, nu.Gender, nu.PreferredGender, s.now()).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "username") {
				return 0, errUsernameTaken
			}
			return 0, errEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// FindCredentials returns the id and password hash for an email.
func (s *pgUserStore) FindCredentials(ctx context.Context, email string) (int, string, error) {
	var (
		id   int
		hash sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, password FROM users WHERE email = $1`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", errUserNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("find credentials: %w", err)
	}
	return id, hash.String, nil
}

func (s *pgUserStore) TouchLastOnline(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_online = $2 WHERE id = $1`, id, s.now())
	return err
}

// UpdateUser loads the user under a row lock, applies fn, recomputes the
// derived stats and writes the profile back. An error from fn aborts the
// transaction and is returned unchanged.
func (s *pgUserStore) UpdateUser(ctx context.Context, id int, fn func(u *discovery.User) error) (*discovery.User, error) {
	var out *discovery.User
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		u, err := loadUserForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		refreshStats(u, s.now())
		if err := saveUser(ctx, tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// RecordView appends a view of viewedID and refreshes its counters.
func (s *pgUserStore) RecordView(ctx context.Context, viewerID, viewedID int) (*discovery.User, error) {
	var out *discovery.User
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		u, err := loadUserForUpdate(ctx, tx, viewedID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profile_views (viewer_id, viewed_id, created_at) VALUES ($1, $2, $3)`,
			viewerID, viewedID, s.now()); err != nil {
			return fmt.Errorf("insert view: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM profile_views WHERE viewed_id = $1`, viewedID).Scan(&u.ProfileViews); err != nil {
			return fmt.Errorf("count views: %w", err)
		}
		refreshStats(u, s.now())
		if err := saveUser(ctx, tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// SetAvatar stores url and returns the previous one.
func (s *pgUserStore) SetAvatar(ctx context.Context, id int, url string) (string, error) {
	return s.swapAvatar(ctx, id, sql.NullString{String: url, Valid: url != ""})
}

// ClearAvatar removes the avatar and returns the previous url.
func (s *pgUserStore) ClearAvatar(ctx context.Context, id int) (string, error) {
	return s.swapAvatar(ctx, id, sql.NullString{})
}

func (s *pgUserStore) swapAvatar(ctx context.Context, id int, url sql.NullString) (string, error) {
	var old sql.NullString
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT avatar_url FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&old)
		if errors.Is(err, sql.ErrNoRows) {
			return errUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock avatar: %w", err)
		}
		var updated any
		if url.Valid {
			updated = s.now()
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET avatar_url = $2, avatar_updated_at = $3, updated_at = NOW() WHERE id = $1`,
			id, url, updated)
		return err
	})
	return old.String, err
}

// AvatarInfo returns the avatar url and its update time, empty when unset.
func (s *pgUserStore) AvatarInfo(ctx context.Context, id int) (string, *time.Time, error) {
	var (
		url     sql.NullString
		updated sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT avatar_url, avatar_updated_at FROM users WHERE id = $1`, id).Scan(&url, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, errUserNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("avatar info: %w", err)
	}
	if !updated.Valid {
		return url.String, nil, nil
	}
	return url.String, &updated.Time, nil
}

func loadUserForUpdate(ctx context.Context, tx *sql.Tx, id int) (*discovery.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock user %d: %w", id, err)
	}
	return u, nil
}

// saveUserSQL writes back the profile read by userColumns. The legacy bio
// column is folded into biography on read and cleared on write.
const saveUserSQL = `
		UPDATE users SET
			gender = NULLIF($2, ''),
			preferred_gender = NULLIF($3, ''),
			sexual_preferences = $4,
			interests = $5,
			photos = $6,
			biography = NULLIF($7, ''),
			bio = NULL,
			birth_date = $8,
			latitude = $9,
			longitude = $10,
			city = NULLIF($11, ''),
			country = NULLIF($12, ''),
			location_source = NULLIF($13, ''),
			location_updated_at = $14,
			profile_views = $15,
			likes_count = $16,
			profile_completion = $17,
			fame_rating = $18,
			updated_at = NOW()
		WHERE id = $1
`

// saveUser writes the editable profile fields and derived stats.
func saveUser(ctx context.Context, tx *sql.Tx, u *discovery.User) error {
	var birth any
	if u.BirthDate != nil {
		birth = *u.BirthDate
	}
	var lat, lon, locatedAt any
	if u.HasLocation() {
		lat, lon = *u.Latitude, *u.Longitude
	}
	if u.LocationUpdatedAt != nil {
		locatedAt = *u.LocationUpdatedAt
	}
	_, err := tx.ExecContext(ctx, saveUserSQL, u.ID, u.Gender, u.PreferredGender,
		u.SexualPreferences, u.Interests, u.Photos,
		u.Biography, birth, lat, lon,
		u.City, u.Country, u.LocationSource, locatedAt,
		u.ProfileViews, u.LikesCount, u.ProfileCompletion, u.FameRating)
	if err != nil {
		return fmt.Errorf("save user %d: %w", u.ID, err)
	}
	return nil
}
