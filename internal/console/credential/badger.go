package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/autopeer-io/patrolctl/pkg/log"
)

var _ Store = (*BadgerStore)(nil)

// BadgerStore keeps the credential in a badger database under Key.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) the database directory at path. Badger's
// internal logging is forwarded to logger at debug level and above.
func OpenBadgerStore(path string, logger log.Logger) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("path is required for badger credential store")
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1)
	return openBadger(opts, logger)
}

// OpenInMemoryBadgerStore opens a badger database without a backing directory.
func OpenInMemoryBadgerStore(logger log.Logger) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), logger)
}

func openBadger(opts badger.Options, logger log.Logger) (*BadgerStore, error) {
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.WithName("badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get() (string, error) {
	var token []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key))
		if err != nil {
			return err
		}
		token, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	if len(token) == 0 {
		return "", ErrNoCredential
	}
	return string(token), nil
}

func (b *BadgerStore) Set(token string) error {
	if token == "" {
		return ErrEmptyCredential
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key), []byte(token))
	})
}

func (b *BadgerStore) Clear() error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(Key))
	})
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// badgerLogger adapts log.Logger to badger.Logger.
type badgerLogger struct {
	logger log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(nil, fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
