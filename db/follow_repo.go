package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

var _ domain.FollowRepository = (*Repository)(nil)

// Follow records that follower follows followee.
func (repo *Repository) Follow(followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return domain.ErrSelfFollow
	}

	query := `INSERT INTO follow(follower_id, followee_id, created_at) VALUES (?, ?, ?)`

	_, err := repo.dbConn.Exec(query, followerID, followeeID, now())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyFollowing
		}
		return fmt.Errorf("following %s by %s: %w", followeeID, followerID, err)
	}
	return nil
}

// Unfollow removes the follow relation.
func (repo *Repository) Unfollow(followerID, followeeID uuid.UUID) error {
	query := `DELETE FROM follow WHERE follower_id = ? AND followee_id = ?`

	result, err := repo.dbConn.Exec(query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("unfollowing %s by %s: %w", followeeID, followerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("fetching rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFollowing
	}
	return nil
}

// IsFollowing reports whether follower follows followee.
func (repo *Repository) IsFollowing(followerID, followeeID uuid.UUID) (bool, error) {
	var following bool
	query := `SELECT EXISTS(SELECT 1 FROM follow WHERE follower_id = ? AND followee_id = ?)`

	err := repo.dbConn.Get(&following, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("checking follow of %s by %s: %w", followeeID, followerID, err)
	}
	return following, nil
}

// ListFollowers returns the users following userID.
func (repo *Repository) ListFollowers(userID uuid.UUID) ([]*domain.User, error) {
	query := `SELECT u.id, u.username, u.password_hash, u.anonymous, u.date_joined
	          FROM follow f JOIN user_account u ON f.follower_id = u.id
	          WHERE f.followee_id = ?
	          ORDER BY u.username COLLATE NOCASE`
	return repo.selectUsers(query, userID)
}

// ListFollowing returns the users userID follows.
func (repo *Repository) ListFollowing(userID uuid.UUID) ([]*domain.User, error) {
	query := `SELECT u.id, u.username, u.password_hash, u.anonymous, u.date_joined
	          FROM follow f JOIN user_account u ON f.followee_id = u.id
	          WHERE f.follower_id = ?
	          ORDER BY u.username COLLATE NOCASE`
	return repo.selectUsers(query, userID)
}

func (repo *Repository) selectUsers(query string, args ...any) ([]*domain.User, error) {
	var dbUsers []*dbUser
	err := repo.dbConn.Select(&dbUsers, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users := make([]*domain.User, len(dbUsers))
	for i, dbUser := range dbUsers {
		users[i] = toDomainUser(dbUser)
	}
	return users, nil
}
