package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"twscraper/pkg/models"
)

func TestConsoleRunOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Banner("alice", "/data/tweets.db")
	c.Resuming(100)
	for i := 0; i < 3; i++ {
		c.Tick()
	}
	c.Finish(3)

	want := "* Will collect tweets from user alice\n" +
		"* Will save tweets to /data/tweets.db\n" +
		"* Resuming from id 100\n" +
		"...\n\n" +
		"* done: 3 tweet(s)\n"
	assert.Equal(t, want, buf.String())
}

func TestConsoleBreaksRowsEverySixtyDots(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	for i := 0; i < 125; i++ {
		c.Tick()
	}

	rows := strings.Split(buf.String(), "\n")
	if assert.Len(t, rows, 3) {
		assert.Equal(t, strings.Repeat(".", 60), rows[0])
		assert.Equal(t, strings.Repeat(".", 60), rows[1])
		assert.Equal(t, ".....", rows[2])
	}
}

func TestConsoleDryRun(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.DryRunNotice()
	c.DryRunPost(models.Post{
		ID:        42,
		Timestamp: time.Date(2018, 10, 10, 20, 19, 24, 0, time.UTC),
		Author:    "alice",
		Text:      "it's here",
	})
	c.Finish(0)

	assert.Equal(t, "** Dry run - one tweet will be loaded and not saved\n"+
		`(42, 2018-10-10 20:19:24, 'alice', 'it\'s here')`+"\n"+
		"\n\n* done: 0 tweet(s)\n", buf.String())
}

func TestFormatPostEscapes(t *testing.T) {
	p := models.Post{ID: 1, Timestamp: time.Unix(0, 0), Author: "a", Text: "line\nnext \\ end"}
	assert.Equal(t, `(1, 1970-01-01 00:00:00, 'a', 'line\nnext \\ end')`, FormatPost(p))
}

func TestColorToggle(t *testing.T) {
	SetColorEnabled(false)
	defer SetColorEnabled(true)
	assert.Equal(t, "plain", Red("plain"))

	SetColorEnabled(true)
	assert.Equal(t, "\033[31mred\033[0m", Red("red"))
}

func TestPrintErrorGoesToStderr(t *testing.T) {
	var buf bytes.Buffer
	prev := Stderr
	Stderr = &buf
	defer func() { Stderr = prev }()
	SetColorEnabled(false)
	defer SetColorEnabled(true)

	PrintError("Run failed", "boom")
	assert.Equal(t, "Run failed: boom\n", buf.String())
}
