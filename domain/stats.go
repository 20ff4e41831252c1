package domain

// StatsRepository defines the interface for retrieving counts across the application's data.
type StatsRepository interface {
	// CountUsers returns the number of registered users.
	CountUsers() (int, error)
	// CountFreets returns the number of freets.
	CountFreets() (int, error)
	// CountComments returns the number of comments.
	CountComments() (int, error)
	// CountReactions returns the number of active up or down votes.
	CountReactions() (int, error)
}
