package db

import (
	"fmt"

	"github.com/tfkr-ae/fritter/domain"
)

var _ domain.StatsRepository = (*Repository)(nil)

// CountUsers returns the number of registered users.
func (repo *Repository) CountUsers() (int, error) {
	return repo.count("user_account", `SELECT COUNT(*) FROM user_account`)
}

// CountFreets returns the number of freets.
func (repo *Repository) CountFreets() (int, error) {
	return repo.count("freet", `SELECT COUNT(*) FROM freet`)
}

// CountComments returns the number of comments.
func (repo *Repository) CountComments() (int, error) {
	return repo.count("comment", `SELECT COUNT(*) FROM comment`)
}

// CountReactions returns the number of active up or down votes.
func (repo *Repository) CountReactions() (int, error) {
	return repo.count("reaction", `SELECT COUNT(*) FROM reaction`)
}

func (repo *Repository) count(name string, query string) (int, error) {
	var count int

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("getting %s count: %w", name, err)
	}

	return count, nil
}
