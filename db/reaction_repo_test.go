package db

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

func mustReact(t *testing.T, repo *Repository, kind domain.TargetKind, targetID, userID uuid.UUID, action domain.Reaction) domain.Reaction {
	t.Helper()

	reaction, err := repo.React(kind, targetID, userID, action)
	if err != nil {
		t.Fatalf("reacting on %s %s: %v", kind, targetID, err)
	}
	return reaction
}

func TestReactionRepo_React(t *testing.T) {
	t.Run("should walk the reaction state machine and keep counters consistent", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		alice := testUser(t, repo, "alice")
		bob := testUser(t, repo, "bob")
		freet := testFreet(t, repo, alice, "vote on me")

		steps := []struct {
			user      *domain.User
			action    domain.Reaction
			want      domain.Reaction
			upvotes   int
			downvotes int
		}{
			{alice, domain.ReactionUp, domain.ReactionUp, 1, 0},
			{bob, domain.ReactionDown, domain.ReactionDown, 1, 1},
			{bob, domain.ReactionUp, domain.ReactionUp, 2, 0},
			{alice, domain.ReactionUp, domain.ReactionNone, 1, 0},
			{bob, domain.ReactionDown, domain.ReactionDown, 0, 1},
			{bob, domain.ReactionDown, domain.ReactionNone, 0, 0},
		}

		for i, step := range steps {
			got := mustReact(t, repo, domain.TargetFreet, freet.ID, step.user.ID, step.action)
			if got != step.want {
				t.Fatalf("step %d\nwanted:\n%v\ngot:\n%v", i, step.want, got)
			}

			stored, err := repo.GetReaction(domain.TargetFreet, freet.ID, step.user.ID)
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}
			if stored != step.want {
				t.Fatalf("step %d\nwanted:\n%v\ngot:\n%v", i, step.want, stored)
			}

			current, err := repo.GetFreet(freet.ID)
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}
			if current.Upvotes != step.upvotes || current.Downvotes != step.downvotes {
				t.Fatalf("step %d\nwanted:\n%d/%d\ngot:\n%d/%d", i, step.upvotes, step.downvotes, current.Upvotes, current.Downvotes)
			}
		}
	})

	t.Run("should react on comments", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		alice := testUser(t, repo, "alice")
		freet := testFreet(t, repo, alice, "freet")
		comment := testComment(t, repo, alice, freet, "comment")

		mustReact(t, repo, domain.TargetComment, comment.ID, alice.ID, domain.ReactionDown)

		got, err := repo.GetComment(comment.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Downvotes != 1 || got.Score() != -1 {
			t.Fatalf("\nwanted:\n1 -1\ngot:\n%d %d", got.Downvotes, got.Score())
		}
	})

	t.Run("should return ErrNotFound for unknown targets", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		alice := testUser(t, repo, "alice")
		_, err := repo.React(domain.TargetFreet, uuid.New(), alice.ID, domain.ReactionUp)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}
	})

	t.Run("should reject unknown target kinds", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		_, err := repo.React(domain.TargetKind("user"), uuid.New(), uuid.New(), domain.ReactionUp)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestReactionRepo_GetReactions(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	alice := testUser(t, repo, "alice")
	bob := testUser(t, repo, "bob")
	liked := testFreet(t, repo, alice, "liked")
	disliked := testFreet(t, repo, alice, "disliked")
	untouched := testFreet(t, repo, alice, "untouched")
	comment := testComment(t, repo, bob, liked, "same id space, other kind")

	mustReact(t, repo, domain.TargetFreet, liked.ID, bob.ID, domain.ReactionUp)
	mustReact(t, repo, domain.TargetFreet, disliked.ID, bob.ID, domain.ReactionDown)
	mustReact(t, repo, domain.TargetFreet, untouched.ID, alice.ID, domain.ReactionUp)
	mustReact(t, repo, domain.TargetComment, comment.ID, bob.ID, domain.ReactionUp)

	got, err := repo.GetReactions(domain.TargetFreet, []uuid.UUID{liked.ID, disliked.ID, untouched.ID, comment.ID}, bob.ID)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}

	want := map[uuid.UUID]domain.Reaction{
		liked.ID:    domain.ReactionUp,
		disliked.ID: domain.ReactionDown,
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, got)
	}

	empty, err := repo.GetReactions(domain.TargetFreet, nil, bob.ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("\nwanted:\nempty <nil>\ngot:\n%v %v", empty, err)
	}
}
