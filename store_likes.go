package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
)

// pgLikeStore owns the profile_likes relation.
type pgLikeStore struct {
	db  *sql.DB
	now func() time.Time
}

func newLikeStore(db *sql.DB) *pgLikeStore {
	return &pgLikeStore{db: db, now: time.Now}
}

// likeResult is the outcome of a like toggle. Match is set when both users
// now like each other.
type likeResult struct {
	User  *discovery.User
	Liked bool
	Match bool
}

// LikedIDsBy lists the users viewerID has liked, oldest like first.
func (s *pgLikeStore) LikedIDsBy(ctx context.Context, viewerID int) ([]int, error) {
	return s.queryIDs(ctx,
		`SELECT liked_id FROM profile_likes WHERE liker_id = $1 ORDER BY created_at, id`, viewerID)
}

// LikedByIDs lists the users who liked userID, newest first.
func (s *pgLikeStore) LikedByIDs(ctx context.Context, userID int) ([]int, error) {
	return s.queryIDs(ctx,
		`SELECT liker_id FROM profile_likes WHERE liked_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

// MatchedIDs lists the users that like userID back.
func (s *pgLikeStore) MatchedIDs(ctx context.Context, userID int) ([]int, error) {
	return s.queryIDs(ctx, `
		SELECT mine.liked_id
		FROM profile_likes mine
		JOIN profile_likes theirs
		  ON theirs.liker_id = mine.liked_id AND theirs.liked_id = mine.liker_id
		WHERE mine.liker_id = $1
		ORDER BY GREATEST(mine.created_at, theirs.created_at) DESC, mine.liked_id
	`, userID)
}

func (s *pgLikeStore) queryIDs(ctx context.Context, query string, arg int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ToggleLike likes likedID, or removes the like if it exists. The liked
// user comes back with refreshed counters.
func (s *pgLikeStore) ToggleLike(ctx context.Context, likerID, likedID int) (likeResult, error) {
	var res likeResult
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		u, err := loadUserForUpdate(ctx, tx, likedID)
		if err != nil {
			return err
		}

		deleted, err := tx.ExecContext(ctx,
			`DELETE FROM profile_likes WHERE liker_id = $1 AND liked_id = $2`, likerID, likedID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		removed, err := deleted.RowsAffected()
		if err != nil {
			return err
		}
		if removed == 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO profile_likes (liker_id, liked_id, created_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (liker_id, liked_id) DO NOTHING
			`, likerID, likedID, s.now()); err != nil {
				return fmt.Errorf("insert like: %w", err)
			}
			res.Liked = true
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM profile_likes WHERE liker_id = $1 AND liked_id = $2)`,
				likedID, likerID).Scan(&res.Match); err != nil {
				return fmt.Errorf("check match: %w", err)
			}
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM profile_likes WHERE liked_id = $1`, likedID).Scan(&u.LikesCount); err != nil {
			return fmt.Errorf("count likes: %w", err)
		}
		refreshStats(u, s.now())
		if err := saveUser(ctx, tx, u); err != nil {
			return err
		}
		res.User = u
		return nil
	})
	if err != nil {
		return likeResult{}, err
	}
	return res, nil
}
