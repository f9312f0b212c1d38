package ingest

import (
	"context"

	"twscraper/pkg/auth"
	"twscraper/pkg/logger"
	"twscraper/pkg/models"
	"twscraper/pkg/store"
	"twscraper/pkg/twitter"
)

// Store is the persistence the driver needs
type Store interface {
	EnsureSchema(ctx context.Context) error
	MinKnownID(ctx context.Context, author string) (int64, bool, error)
	InsertIfAbsent(ctx context.Context, post models.Post) (bool, error)
	Close() error
}

// Opener opens or creates the store at location
type Opener func(ctx context.Context, location string) (Store, error)

// Source authenticates against the platform
type Source interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (Feed, error)
}

// Feed hands out post sequences for an authenticated session
type Feed interface {
	FetchPosts(q twitter.Query) Iterator
}

// Iterator is a pull-based sequence of posts
type Iterator interface {
	Next(ctx context.Context) bool
	Post() models.Post
	Err() error
}

// Reporter prints run progress for the operator
type Reporter interface {
	DryRunNotice()
	Banner(account, location string)
	Resuming(id int64)
	DryRunPost(p models.Post)
	Tick()
	Finish(count int)
}

// Recorder receives per-run counters
type Recorder interface {
	PostWritten(inserted bool)
	RunFinished(success bool, written int)
}

// StoreOpener opens a store.Store
func StoreOpener(log logger.Logger) Opener {
	return func(ctx context.Context, location string) (Store, error) {
		s, err := store.Open(ctx, location, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// NewTwitterSource adapts a twitter.Client
func NewTwitterSource(client *twitter.Client) Source {
	return &twitterSource{client: client}
}

type twitterSource struct {
	client *twitter.Client
}

func (s *twitterSource) Authenticate(ctx context.Context, creds auth.Credentials) (Feed, error) {
	session, err := s.client.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return &twitterFeed{client: s.client, session: session}, nil
}

type twitterFeed struct {
	client  *twitter.Client
	session *twitter.Session
}

func (f *twitterFeed) FetchPosts(q twitter.Query) Iterator {
	return f.client.FetchPosts(f.session, q)
}
