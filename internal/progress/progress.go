package progress

import (
	"fmt"
	"os"
	"time"

	"go.coldcutz.net/ralph/internal/log"
)

const timestampFormat = "2006-01-02 15:04:05"

// Log appends timestamped sections to progress.md.
// Writes are best effort: failures are dropped, never retried.
type Log struct {
	Path string
	Now  func() time.Time
}

// New returns a Log writing to path using the wall clock
func New(path string) *Log {
	return &Log{Path: path, Now: time.Now}
}

// Append writes "\n## [YYYY-MM-DD HH:MM:SS]\n<message>\n" to the log
func (l *Log) Append(message string) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	entry := fmt.Sprintf("\n## [%s]\n%s\n", now().Format(timestampFormat), message)

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Debug(log.CatLoop, "progress log unavailable", "path", l.Path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(entry); err != nil {
		log.Debug(log.CatLoop, "progress log write failed", "path", l.Path, "error", err)
	}
}
