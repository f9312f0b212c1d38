package ingest

import (
	"context"
	"fmt"

	"twscraper/pkg/auth"
	"twscraper/pkg/errors"
	"twscraper/pkg/logger"
	"twscraper/pkg/metrics"
	"twscraper/pkg/models"
	"twscraper/pkg/store"
	"twscraper/pkg/twitter"
)

// State is a step of the run state machine
type State int

const (
	StateInit State = iota
	StateSchemaReady
	StateResumeLookup
	StatePaging
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSchemaReady:
		return "schema_ready"
	case StateResumeLookup:
		return "resume_lookup"
	case StatePaging:
		return "paging"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options describe one run
type Options struct {
	Account     string
	Location    string
	DryRun      bool
	Resume      bool
	Credentials auth.Credentials
	// ResolveCredentials, when set, replaces Credentials. It runs once paging starts
	// so a failure still ends with the final count.
	ResolveCredentials func(ctx context.Context) (auth.Credentials, error)
}

// Result summarizes a finished run
type Result struct {
	State State
	// Written counts successful inserts, including ones the store ignored as duplicates
	Written  int
	Inserted int
	Skipped  int
	// MaxID is the resume boundary, 0 for a fresh run
	MaxID int64
	// Sample is the post printed by a dry run
	Sample *models.Post
	// FailedIn is the state the run was in when it aborted
	FailedIn State
}

// Driver runs one archive pass for an account
type Driver struct {
	open     Opener
	source   Source
	reporter Reporter
	recorder Recorder
	logger   logger.Logger
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) DriverOption {
	return func(d *Driver) { d.recorder = r }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a Driver
func NewDriver(open Opener, source Source, reporter Reporter, opts ...DriverOption) *Driver {
	d := &Driver{
		open:     open,
		source:   source,
		reporter: reporter,
		recorder: metrics.Nop{},
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes the state machine to Done or Aborted. The final count is printed
// in both cases and the error that aborted the run is returned.
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{State: StateInit}
	err := d.run(ctx, opts, res)

	if err != nil {
		res.FailedIn = res.State
		res.State = StateAborted
		d.logger.WithError(err).ErrorWithFields("run aborted", map[string]interface{}{
			"account": opts.Account,
			"type":    string(errors.TypeOf(err)),
			"state":   res.FailedIn.String(),
			"written": res.Written,
		})
	} else {
		res.State = StateDone
	}

	d.reporter.Finish(res.Written)
	d.recorder.RunFinished(err == nil, res.Written)
	logger.LogRunSummary(d.logger, opts.Account, res.State.String(), res.Written)

	return res, err
}

func (d *Driver) run(ctx context.Context, opts Options, res *Result) error {
	if opts.DryRun {
		d.reporter.DryRunNotice()
	}
	d.reporter.Banner(opts.Account, store.DisplayLocation(opts.Location))

	st, err := d.open(ctx, opts.Location)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			d.logger.WithError(cerr).Warn("failed to close store")
		}
	}()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	d.advance(res, StateSchemaReady, opts.Account)

	if opts.Resume {
		d.advance(res, StateResumeLookup, opts.Account)
		id, ok, err := st.MinKnownID(ctx, opts.Account)
		if err != nil {
			return err
		}
		if ok {
			res.MaxID = id
			d.reporter.Resuming(id)
		}
	}

	d.advance(res, StatePaging, opts.Account)
	creds := opts.Credentials
	if opts.ResolveCredentials != nil {
		if creds, err = opts.ResolveCredentials(ctx); err != nil {
			return err
		}
	}

	feed, err := d.source.Authenticate(ctx, creds)
	if err != nil {
		return err
	}

	posts := feed.FetchPosts(twitter.Query{
		Account:        opts.Account,
		MaxID:          res.MaxID,
		ExcludeReposts: true,
	})

	for posts.Next(ctx) {
		post := posts.Post()

		if opts.DryRun {
			d.reporter.DryRunPost(post)
			res.Sample = &post
			return nil
		}

		inserted, err := st.InsertIfAbsent(ctx, post)
		if err != nil {
			return err
		}
		res.Written++
		if inserted {
			res.Inserted++
		} else {
			res.Skipped++
		}
		d.recorder.PostWritten(inserted)
		d.reporter.Tick()
	}

	return posts.Err()
}

func (d *Driver) advance(res *Result, next State, account string) {
	d.logger.DebugWithFields("state transition", map[string]interface{}{
		"account": account,
		"from":    res.State.String(),
		"to":      next.String(),
	})
	res.State = next
}
