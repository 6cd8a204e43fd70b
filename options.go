package redisvl

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	url      string
	addrs    []string
	username string
	password string
	db       int
	dbSet    bool
}

// WithURL sets the connection URL (redis://[user:pass@]host:port[/db]).
func WithURL(url string) Option {
	return func(c *clientConfig) {
		c.url = url
	}
}

// WithAddrs sets explicit host:port addresses.
func WithAddrs(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithUsername sets the ACL username.
func WithUsername(username string) Option {
	return func(c *clientConfig) {
		c.username = username
	}
}

// WithPassword sets the password.
func WithPassword(password string) Option {
	return func(c *clientConfig) {
		c.password = password
	}
}

// WithDB selects a logical database.
func WithDB(db int) Option {
	return func(c *clientConfig) {
		c.db = db
		c.dbSet = true
	}
}
