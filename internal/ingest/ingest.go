// Package ingest loads the product URL worklist from a CSV file.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlemos/promopost/internal/scraper"
)

// Entry is one accepted row of the worklist. IDs are assigned sequentially
// in file order.
type Entry struct {
	ID  int
	URL string
}

// Values treated as an empty cell. Exported CSV files from spreadsheet tools
// tend to leave these behind.
var emptyMarkers = map[string]bool{"": true, "nan": true, "none": true, "null": true}

type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger.With("component", "ingest")}
}

// Load reads the worklist from path. A strict CSV parse with a url/link
// column runs first; a line-by-line scan then always follows, recovering
// product URLs the tabular parse dropped (malformed rows, rows swallowed by
// broken quoting, files with no usable header). Duplicate URLs keep their
// first occurrence.
func (l *Loader) Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	seen := make(map[string]bool)

	if err := l.parseCSV(f, seen, &entries); err != nil {
		l.logger.Warn("tabular parse failed, relying on line scan", "path", path, "error", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind url file: %w", err)
	}
	if err := l.scanLines(f, seen, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (l *Loader) parseCSV(r io.Reader, seen map[string]bool, entries *[]Entry) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	urlCol := -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "url", "link", "links", "produto":
			urlCol = i
		}
	}
	if urlCol < 0 {
		return fmt.Errorf("no url column in header %v", header)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Warn("skipping malformed row", "error", err)
			continue
		}
		if urlCol >= len(record) {
			continue
		}
		l.accept(record[urlCol], seen, entries)
	}

	return nil
}

// scanLines accepts every product URL found on any line, skipping URLs the
// tabular pass already took.
func (l *Loader) scanLines(r io.Reader, seen map[string]bool, entries *[]Entry) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		for _, field := range strings.Split(sc.Text(), ",") {
			l.accept(field, seen, entries)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to scan url file: %w", err)
	}

	return nil
}

// Append adds one URL to the worklist file, creating it with a url header
// when missing. Re-adding an already listed URL is a no-op.
func (l *Loader) Append(path, url string) error {
	url = scraper.NormalizeURL(strings.TrimSpace(url))
	if !scraper.IsProductURL(url) {
		return fmt.Errorf("not a product url: %s", url)
	}

	existing, err := l.Load(path)
	if err == nil {
		for _, entry := range existing {
			if entry.URL == url {
				return nil
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create input directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open url file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat url file: %w", err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString("url\n"); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if _, err := f.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("failed to append url: %w", err)
	}

	return nil
}

func (l *Loader) accept(raw string, seen map[string]bool, entries *[]Entry) {
	url := strings.Trim(strings.TrimSpace(raw), `"`)
	if emptyMarkers[strings.ToLower(url)] {
		return
	}

	if !scraper.IsProductURL(url) {
		if strings.HasPrefix(url, "http") {
			l.logger.Warn("skipping non-product url", "url", url)
		}
		return
	}

	url = scraper.NormalizeURL(url)
	if seen[url] {
		return
	}
	seen[url] = true

	*entries = append(*entries, Entry{ID: len(*entries) + 1, URL: url})
}
