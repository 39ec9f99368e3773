package badgerfx

import "github.com/dgraph-io/badger/v4"

type Config struct {
	// Path to the BadgerDB data directory. Empty with InMemory set runs
	// without any on-disk state (used by tests).
	Dir      string
	InMemory bool
}

func (c Config) Build() badger.Options {
	options := badger.DefaultOptions(c.Dir)

	if c.InMemory {
		options = options.WithInMemory(true).WithDir("").WithValueDir("")
	}

	return options
}
