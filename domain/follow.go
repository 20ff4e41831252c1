package domain

import "github.com/google/uuid"

// FollowRepository defines the interface for the follow relation between users.
type FollowRepository interface {
	// Follow makes follower follow followee. It returns ErrSelfFollow when both are the
	// same user and ErrAlreadyFollowing when the relation already exists.
	Follow(followerID, followeeID uuid.UUID) error

	// Unfollow removes the relation. It returns ErrNotFollowing if it did not exist.
	Unfollow(followerID, followeeID uuid.UUID) error

	// IsFollowing reports whether follower follows followee.
	IsFollowing(followerID, followeeID uuid.UUID) (bool, error)

	// ListFollowers returns the users following the given user, ordered by username.
	ListFollowers(userID uuid.UUID) ([]*User, error)

	// ListFollowing returns the users the given user follows, ordered by username.
	ListFollowing(userID uuid.UUID) ([]*User, error)
}
