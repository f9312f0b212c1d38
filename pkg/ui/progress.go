package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"twscraper/pkg/models"
)

// DotsPerRow is the number of progress dots printed before a line break
const DotsPerRow = 60

// Console prints a run's progress in the archive tool's plain line format
type Console struct {
	mu  sync.Mutex
	out io.Writer
	n   int
}

// NewConsole creates a Console writing to out, or stdout when out is nil
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// DryRunNotice announces that nothing will be saved
func (c *Console) DryRunNotice() {
	c.println("** Dry run - one tweet will be loaded and not saved")
}

// Banner names the account and the store location
func (c *Console) Banner(account, location string) {
	c.println(fmt.Sprintf("* Will collect tweets from user %s", account))
	c.println(fmt.Sprintf("* Will save tweets to %s", location))
}

// Resuming reports the id paging starts below
func (c *Console) Resuming(id int64) {
	c.println(fmt.Sprintf("* Resuming from id %d", id))
}

// DryRunPost prints the single post of a dry run
func (c *Console) DryRunPost(p models.Post) {
	c.println(FormatPost(p))
}

// Tick prints one dot per stored post, breaking the line every DotsPerRow dots
func (c *Console) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.n++
	if c.n%DotsPerRow == 0 {
		fmt.Fprintln(c.out, ".")
	} else {
		fmt.Fprint(c.out, ".")
	}
}

// Finish prints the separator and the final count
func (c *Console) Finish(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprint(c.out, "\n\n")
	fmt.Fprintf(c.out, "* done: %d tweet(s)\n", count)
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, line)
}

// FormatPost renders a post as (id, timestamp, 'user', 'text')
func FormatPost(p models.Post) string {
	return fmt.Sprintf("(%d, %s, %s, %s)",
		p.ID,
		p.Timestamp.UTC().Format(models.StoredTimeLayout),
		quote(p.Author),
		quote(p.Text))
}

// quote wraps s in single quotes, escaping backslashes, quotes and line breaks
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return "'" + r.Replace(s) + "'"
}
