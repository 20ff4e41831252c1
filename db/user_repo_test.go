package db

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

func TestUserRepo_CreateUser(t *testing.T) {
	t.Run("should create a user that can be read back", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		created, err := repo.CreateUser("alice", "secret-hash")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetUserByID(created.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if got.Username != "alice" || got.PasswordHash != "secret-hash" || got.Anonymous {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", created, got)
		}
		if !got.DateJoined.Equal(created.DateJoined) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", created.DateJoined, got.DateJoined)
		}
	})

	t.Run("should reject a username that differs only in case", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		testUser(t, repo, "alice")

		_, err := repo.CreateUser("ALICE", "hash")
		if !errors.Is(err, domain.ErrUsernameTaken) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrUsernameTaken, err)
		}
	})
}

func TestUserRepo_GetUserByUsername(t *testing.T) {
	t.Run("should find users ignoring case", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		want := testUser(t, repo, "Alice")

		got, err := repo.GetUserByUsername("aLiCe")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.ID != want.ID {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", want.ID, got.ID)
		}
	})

	t.Run("should return ErrNotFound for unknown users", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		_, err := repo.GetUserByUsername("nobody")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}
	})
}

func TestUserRepo_Updates(t *testing.T) {
	t.Run("should update username, password and anonymous mode", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		user := testUser(t, repo, "alice")

		if err := repo.UpdateUsername(user.ID, "alicia"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := repo.UpdatePassword(user.ID, "new-hash"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := repo.SetAnonymous(user.ID, true); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetUserByID(user.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Username != "alicia" || got.PasswordHash != "new-hash" || !got.Anonymous {
			t.Fatalf("\nwanted:\nalicia new-hash true\ngot:\n%s %s %v", got.Username, got.PasswordHash, got.Anonymous)
		}
	})

	t.Run("should refuse to rename to a taken username", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		alice := testUser(t, repo, "alice")
		testUser(t, repo, "bob")

		err := repo.UpdateUsername(alice.ID, "Bob")
		if !errors.Is(err, domain.ErrUsernameTaken) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrUsernameTaken, err)
		}
	})

	t.Run("should return ErrNotFound for unknown ids", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		err := repo.SetAnonymous(uuid.New(), true)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}
	})
}

func TestUserRepo_DeleteUser(t *testing.T) {
	t.Run("should remove everything the user owns and compensate counters", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		alice := testUser(t, repo, "alice")
		bob := testUser(t, repo, "bob")

		aliceFreet := testFreet(t, repo, alice, "alice freet")
		bobFreet := testFreet(t, repo, bob, "bob freet")
		aliceComment := testComment(t, repo, alice, bobFreet, "alice comment")
		bobComment := testComment(t, repo, bob, bobFreet, "bob comment")

		mustReact(t, repo, domain.TargetFreet, bobFreet.ID, alice.ID, domain.ReactionUp)
		mustReact(t, repo, domain.TargetComment, bobComment.ID, alice.ID, domain.ReactionDown)
		mustReact(t, repo, domain.TargetFreet, aliceFreet.ID, bob.ID, domain.ReactionUp)
		mustReact(t, repo, domain.TargetComment, aliceComment.ID, bob.ID, domain.ReactionUp)

		if _, err := repo.CreateSession(alice.ID, 0); err != nil {
			t.Fatalf("creating session: %v", err)
		}
		if err := repo.Follow(bob.ID, alice.ID); err != nil {
			t.Fatalf("following: %v", err)
		}

		if err := repo.DeleteUser(alice.ID); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if _, err := repo.GetUserByID(alice.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}
		if _, err := repo.GetFreet(aliceFreet.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}
		if _, err := repo.GetComment(aliceComment.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}

		freet, err := repo.GetFreet(bobFreet.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if freet.Upvotes != 0 || freet.Downvotes != 0 {
			t.Fatalf("\nwanted:\n0/0\ngot:\n%d/%d", freet.Upvotes, freet.Downvotes)
		}

		comment, err := repo.GetComment(bobComment.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if comment.Upvotes != 0 || comment.Downvotes != 0 {
			t.Fatalf("\nwanted:\n0/0\ngot:\n%d/%d", comment.Upvotes, comment.Downvotes)
		}

		reactions, err := repo.CountReactions()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if reactions != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", reactions)
		}

		following, err := repo.ListFollowing(bob.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(following) != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", len(following))
		}
	})

	t.Run("should return ErrNotFound for unknown users", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		err := repo.DeleteUser(uuid.New())
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}
	})
}
