// Package logwriter tees log entries into a per-month file under the log
// directory, as a logrus hook. Console output stays untouched.
package logwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Hook appends formatted entries to <dir>/<Month>.log. The file is opened
// per entry so month rollover needs no bookkeeping.
type Hook struct {
	dir string
}

func NewHook(dir string) (*Hook, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &Hook{dir: dir}, nil
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *Hook) Fire(entry *logrus.Entry) error {
	name := filepath.Join(h.dir, entry.Time.Month().String()+".log")
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	line := entry.Time.Format(time.DateTime) + " [" + entry.Level.String() + "] " + entry.Message
	for k, v := range entry.Data {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	_, err = file.WriteString(line + "\n")
	return err
}
