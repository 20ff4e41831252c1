package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when a username is already registered (case-insensitive).
	ErrUsernameTaken = errors.New("username already taken")
	// ErrAlreadyFollowing is returned when following a user that is already followed.
	ErrAlreadyFollowing = errors.New("already following user")
	// ErrNotFollowing is returned when unfollowing a user that is not followed.
	ErrNotFollowing = errors.New("not following user")
	// ErrSelfFollow is returned when a user attempts to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
)
