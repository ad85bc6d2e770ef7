// Package logging builds the process logger: stdout plus a dated file under
// the log directory, rotated daily and pruned to the retention window.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// Setup installs the global zerolog logger and returns a cleanup func that
// stops rotation and closes the current file.
func Setup(appEnv, logDir string, retentionDays int) (func(), error) {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}
	var console io.Writer = os.Stdout
	if appEnv == "development" {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	files, err := newDailyFile(logDir, retentionDays, time.Now)
	if err != nil {
		log.Logger = zerolog.New(console).Level(level).With().Timestamp().Logger()
		return func() {}, err
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, files)).
		Level(level).
		With().
		Timestamp().
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	go files.rotateLoop(ctx, time.Minute)
	return func() {
		cancel()
		files.Close()
	}, nil
}

// dailyFile is an io.Writer over app-YYYY-MM-DD.log that swaps files when the
// date changes.
type dailyFile struct {
	mu        sync.Mutex
	dir       string
	retention int
	date      string
	file      *os.File
	now       func() time.Time
}

func newDailyFile(dir string, retentionDays int, now func() time.Time) (*dailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &dailyFile{dir: dir, retention: retentionDays, now: now}
	if err := d.rotate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return len(p), nil
	}
	return d.file.Write(p)
}

func (d *dailyFile) rotate() error {
	date := d.now().Format(dateLayout)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file != nil && date == d.date {
		return nil
	}
	next, err := os.OpenFile(filepath.Join(d.dir, fmt.Sprintf("app-%s.log", date)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = next
	d.date = date
	cleanupOldLogs(d.dir, d.retention, d.now())
	return nil
}

func (d *dailyFile) rotateLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.rotate(); err != nil {
				fmt.Fprintf(os.Stderr, "log rotation: %v\n", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func cleanupOldLogs(dir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -(retentionDays - 1)).Format(dateLayout)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		if _, err := time.Parse(dateLayout, datePart); err != nil {
			continue
		}
		if datePart < cutoff {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}
