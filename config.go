package h1

// Config bounds a Connection's resource usage, defaults per spec.md §6.
// Follows the teacher's Server{}-field-with-defaults convention
// (server.go's Server type) rather than a flags/env config library: this
// is an embeddable engine with no CLI surface of its own to bind a
// config-parsing library to (see SPEC_FULL.md's Ambient Stack note).
type Config struct {
	MaxHeaderCount int
	MinBufferSize  int
	MaxBufferSize  int
	// ClientVersion is the version BuildRequest's callers should
	// negotiate with when none is specified explicitly; Server/Client
	// helpers in server.go/client.go consult it.
	ClientVersion Version
	Logger        Logger
}

// DefaultConfig returns the spec.md §6 defaults.
func DefaultConfig() Config {
	return Config{
		MaxHeaderCount: 32,
		MinBufferSize:  1024,
		MaxBufferSize:  8 * 1024,
		ClientVersion:  HTTP11,
		Logger:         discardLogger{},
	}
}

func (c Config) withDefaults() Config {
	if c.MaxHeaderCount <= 0 {
		c.MaxHeaderCount = 32
	}
	if c.MinBufferSize <= 0 {
		c.MinBufferSize = 1024
	}
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = 8 * 1024
	}
	if c.Logger == nil {
		c.Logger = discardLogger{}
	}
	return c
}
