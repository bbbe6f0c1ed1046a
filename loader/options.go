package loader

import (
	"io"
)

type config struct {
	stdout           io.Writer
	stderr           io.Writer
	freeThreaded     *bool
	memoryLimitPages uint32
}

// Option configures Load.
type Option func(*config)

// WithMemoryLimitPages caps guest memory at n 64KiB pages. Zero keeps the
// wazero default.
func WithMemoryLimitPages(n uint32) Option {
	return func(c *config) {
		c.memoryLimitPages = n
	}
}

// WithStdout routes the guest's stdout.
func WithStdout(w io.Writer) Option {
	return func(c *config) {
		c.stdout = w
	}
}

// WithStderr routes the guest's stderr.
func WithStderr(w io.Writer) Option {
	return func(c *config) {
		c.stderr = w
	}
}

// WithFreeThreaded overrides free-threading detection from the version
// string.
func WithFreeThreaded(ft bool) Option {
	return func(c *config) {
		c.freeThreaded = &ft
	}
}
