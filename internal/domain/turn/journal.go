package turn

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
)

// JournalFile is the append-only turn log inside a run directory.
const JournalFile = "turns.jsonl"

// ErrNoScreenshot is returned when a turn has no screenshot on disk.
var ErrNoScreenshot = errors.New("no screenshot")

// Journal persists turns in a run directory.
type Journal struct {
	dir string
	mu  sync.Mutex
}

// NewJournal creates a journal rooted at dir. The directory must exist.
func NewJournal(dir string) *Journal {
	return &Journal{dir: dir}
}

// Dir returns the run directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return filepath.Join(j.dir, JournalFile)
}

// Append writes r, without its image, as one JSON line.
func (j *Journal) Append(r Record) error {
	line, err := sonic.Marshal(r.WithoutImage())
	if err != nil {
		return fmt.Errorf("marshal turn %d: %w", r.Turn, err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append turn %d: %w", r.Turn, err)
	}
	return nil
}

// ScreenshotPath returns the file used for turn n.
func (j *Journal) ScreenshotPath(n int64) string {
	return filepath.Join(j.dir, fmt.Sprintf("turn_%04d.png", n))
}

// SaveScreenshot decodes b64 and writes it for turn n. An empty payload is
// a no-op.
func (j *Journal) SaveScreenshot(n int64, b64 string) error {
	if b64 == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("decode screenshot for turn %d: %w", n, err)
	}
	if err := os.WriteFile(j.ScreenshotPath(n), data, 0o644); err != nil {
		return fmt.Errorf("write screenshot for turn %d: %w", n, err)
	}
	return nil
}

// LoadScreenshot reads the screenshot for turn n and returns it as a data
// URI with its sniffed media type.
func (j *Journal) LoadScreenshot(n int64) (string, error) {
	data, err := os.ReadFile(j.ScreenshotPath(n))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoScreenshot
	}
	if err != nil {
		return "", fmt.Errorf("read screenshot for turn %d: %w", n, err)
	}
	if len(data) == 0 {
		return "", ErrNoScreenshot
	}
	mime := mimetype.Detect(data).String()
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Export streams the journal gzip-compressed into w. A missing journal
// exports as an empty archive.
func (j *Journal) Export(w io.Writer) error {
	gz := gzip.NewWriter(w)

	j.mu.Lock()
	f, err := os.Open(j.Path())
	if err == nil {
		_, err = io.Copy(gz, f)
		f.Close()
	} else if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	j.mu.Unlock()

	if err != nil {
		gz.Close()
		return fmt.Errorf("export journal: %w", err)
	}
	return gz.Close()
}
