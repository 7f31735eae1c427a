package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	logFilePrefix = "open_transit_"
	logFileSuffix = ".log"
	// DefaultKeepLogFiles is how many log files survive a prune.
	DefaultKeepLogFiles = 3
)

// LogFileName returns the file name for a process started at t.
func LogFileName(t time.Time) string {
	return logFilePrefix + t.Format("20060102_150405") + logFileSuffix
}

// OpenLogFile creates dir if needed and opens a new log file named after
// startedAt for appending.
func OpenLogFile(dir string, startedAt time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, LogFileName(startedAt))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

// PruneLogFiles removes all but the newest keep log files in dir and returns
// the removed paths. Timestamped names sort chronologically.
func PruneLogFiles(dir string, keep int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, logFileSuffix) {
			continue
		}
		names = append(names, name)
	}
	if keep < 0 {
		keep = 0
	}
	if len(names) <= keep {
		return nil, nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var removed []string
	for _, name := range names[keep:] {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove log file %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
