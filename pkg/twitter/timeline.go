package twitter

import (
	"context"
	"time"

	"twscraper/pkg/errors"
	"twscraper/pkg/models"
)

// Query selects the posts a Timeline produces
type Query struct {
	// Account is the screen name whose posts are fetched
	Account string
	// MaxID, when non-zero, restricts the sequence to ids strictly below it
	MaxID int64
	// ExcludeReposts drops reposts of other accounts' posts
	ExcludeReposts bool
}

// Timeline is a lazy, newest-first sequence of an account's posts.
// It pages backward until the platform returns an empty page and cannot be restarted.
//
//	tl := client.FetchPosts(session, twitter.Query{Account: "alice", ExcludeReposts: true})
//	for tl.Next(ctx) {
//	    p := tl.Post()
//	}
//	if err := tl.Err(); err != nil { ... }
type Timeline struct {
	client  *Client
	session *Session
	query   Query

	// maxID is the inclusive max_id for the next request, 0 when absent
	maxID int64
	buf   []models.Post
	cur   models.Post
	err   error
	done  bool
	pages int
}

// FetchPosts returns a Timeline for q. No request is made until the first Next.
func (c *Client) FetchPosts(session *Session, q Query) *Timeline {
	t := &Timeline{client: c, session: session, query: q}
	if q.MaxID > 0 {
		// max_id is inclusive on the wire
		t.maxID = q.MaxID - 1
	}
	return t
}

// Next advances to the next post, fetching a page when the buffer is empty.
// It returns false at the end of the sequence or on error.
func (t *Timeline) Next(ctx context.Context) bool {
	for len(t.buf) == 0 {
		if t.done || t.err != nil {
			return false
		}
		if t.query.MaxID == 1 {
			// nothing is older than the first id
			t.done = true
			return false
		}
		if err := t.fetchPage(ctx); err != nil {
			t.err = err
			return false
		}
	}

	t.cur, t.buf = t.buf[0], t.buf[1:]
	return true
}

// Post returns the current post
func (t *Timeline) Post() models.Post {
	return t.cur
}

// Err returns the error that ended the sequence, if any
func (t *Timeline) Err() error {
	return t.err
}

// Pages returns the number of pages fetched so far
func (t *Timeline) Pages() int {
	return t.pages
}

// fetchPage requests one page and refills the buffer. Paging advances on the raw
// page so filtered reposts never cause a page to be requested twice.
func (t *Timeline) fetchPage(ctx context.Context) error {
	if t.session == nil || t.session.http == nil {
		return errors.NewAuthError("fetch posts", "not authenticated", 0, nil)
	}

	params := timelineParams(t.query.Account, t.client.pageSize, t.maxID, t.query.ExcludeReposts)

	var page []models.Status
	if err := t.client.getJSON(ctx, t.session.http, UserTimelineEndpoint, params, &page); err != nil {
		return err
	}
	t.pages++

	t.client.logger.DebugWithFields("fetched timeline page", map[string]interface{}{
		"account": t.query.Account,
		"page":    t.pages,
		"max_id":  t.maxID,
		"items":   len(page),
	})

	if len(page) == 0 {
		t.done = true
		return nil
	}

	oldest := page[0].ID
	for _, status := range page {
		if status.ID < oldest {
			oldest = status.ID
		}
		if t.query.ExcludeReposts && status.IsRepost() {
			continue
		}
		if t.query.MaxID > 0 && status.ID >= t.query.MaxID {
			continue
		}

		post, err := toPost(status)
		if err != nil {
			return err
		}
		t.buf = append(t.buf, post)
	}

	if oldest <= 1 {
		t.done = true
	} else {
		t.maxID = oldest - 1
	}
	return nil
}

// toPost flattens a status into the four stored fields
func toPost(s models.Status) (models.Post, error) {
	ts, err := time.Parse(models.CreatedAtLayout, s.CreatedAt)
	if err != nil {
		return models.Post{}, errors.NewTransportError("decode status", "invalid created_at "+s.CreatedAt, 0, err)
	}

	text := s.Text
	if text == "" {
		text = s.FullText
	}

	return models.Post{
		ID:        s.ID,
		Timestamp: ts.UTC(),
		Author:    s.User.ScreenName,
		Text:      text,
	}, nil
}
