package token

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/easytier/easytier-service/pkg/random"
	"github.com/gofrs/flock"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
)

const (
	// DefaultFile is the token file relative to the working directory
	DefaultFile = "auth_token"
	// Length is the length of generated tokens
	Length = 32

	lockRetryDelay = 100 * time.Millisecond
)

// Store manages the newline delimited token file. Reads and writes are serialized by the
// store's own mutex and a file lock, so concurrent read-modify-write cycles can't lose tokens.
type Store struct {
	path     string
	m        sync.Mutex
	fileLock *flock.Flock
	log      log.Logger
}

// NewStore creates a store for the token file at path
func NewStore(path string, log log.Logger) *Store {
	return &Store{
		path:     path,
		fileLock: flock.New(path + ".lock"),
		log:      log,
	}
}

// Tokens returns the valid tokens in sorted order. If there are none, a new token is
// generated and written first.
func (s *Store) Tokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := s.locked(ctx, func() error {
		set, err := s.read()
		if err != nil {
			return err
		}

		if len(set) == 0 {
			if _, err := s.addTo(set); err != nil {
				return err
			}
			s.log.Info("Generated a new auth token")
		}

		tokens = sorted(set)
		return nil
	})

	return tokens, err
}

// Add generates a new token, writes it to the file and returns it
func (s *Store) Add(ctx context.Context) (string, error) {
	var token string
	err := s.locked(ctx, func() error {
		set, err := s.read()
		if err != nil {
			return err
		}

		token, err = s.addTo(set)
		return err
	})

	return token, err
}

// Valid checks if token is one of the stored tokens
func (s *Store) Valid(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	tokens, err := s.Tokens(ctx)
	if err != nil {
		return false, err
	}

	idx := sort.SearchStrings(tokens, token)
	return idx < len(tokens) && tokens[idx] == token, nil
}

func (s *Store) addTo(set map[string]struct{}) (string, error) {
	token, err := random.String(Length)
	if err != nil {
		return "", errors.Wrap(err, "generate token")
	}

	set[token] = struct{}{}
	return token, s.write(set)
}

func (s *Store) locked(ctx context.Context, fn func() error) error {
	s.m.Lock()
	defer s.m.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create token folder")
		}
	}

	locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrap(err, "acquire token file lock")
	} else if !locked {
		return errors.New("token file is locked")
	}
	defer func(fileLock *flock.Flock) {
		_ = fileLock.Unlock()
	}(s.fileLock)

	return fn()
}

func (s *Store) read() (map[string]struct{}, error) {
	set := map[string]struct{}{}
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}

		return nil, errors.Wrap(err, "open token file")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			set[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read token file")
	}

	return set, nil
}

func (s *Store) write(set map[string]struct{}) error {
	content := strings.Join(sorted(set), "\n")
	if err := os.WriteFile(s.path, []byte(content), 0o600); err != nil {
		return errors.Wrap(err, "write token file")
	}

	return nil
}

func sorted(set map[string]struct{}) []string {
	tokens := make([]string, 0, len(set))
	for token := range set {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
