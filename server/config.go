package server

// Config is the development chat server configuration.
type Config struct {
	// Address to listen on (e.g., ":8000")
	ListenAddr string

	// AuthToken, when set, is the bearer token every chat request must carry.
	// Empty leaves the API open for local use.
	AuthToken string

	// DBPath is the path to the SQLite database file holding conversations.
	// Use ":memory:" for an in-memory database, or empty for in-memory.
	DBPath string

	// RateLimit is the number of chat requests allowed per second per
	// client address. Zero disables limiting.
	RateLimit int

	// Model is the name reported by the health endpoint.
	Model string
}
