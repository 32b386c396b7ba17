package tiktok

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultOutputDir is where CSV files go unless configured otherwise.
	DefaultOutputDir = "data"

	fileTimeLayout     = "20060102_150405"
	scrapedAtLayout    = "2006-01-02T15:04:05.000000"
	combinedFilePrefix = "tiktok_scrape_combined"
)

var (
	profileColumns = []string{
		"video_url", "views", "likes", "bookmarks", "comments",
		"views_raw", "likes_raw", "bookmarks_raw", "comments_raw", "scraped_at",
	}
	combinedColumns = append([]string{"profile_name", "profile_url"}, profileColumns...)
)

// CSVSink writes records as CSV files into one directory.
type CSVSink struct {
	Dir string
	now func() time.Time
}

// NewCSVSink returns a sink writing into dir, or DefaultOutputDir when dir is
// empty. The directory is created on first write.
func NewCSVSink(dir string) *CSVSink {
	if dir == "" {
		dir = DefaultOutputDir
	}
	return &CSVSink{Dir: dir, now: time.Now}
}

// WriteProfile writes one profile's records to <name>_<timestamp>.csv and
// returns the path.
func (s *CSVSink) WriteProfile(name string, records []VideoRecord) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	file := fmt.Sprintf("%s_%s.csv", sanitizeFileName(name), s.now().Format(fileTimeLayout))
	return s.write(file, profileColumns, records, false)
}

// WriteCombined writes records from any number of profiles to a single
// tiktok_scrape_combined_<timestamp>.csv and returns the path.
func (s *CSVSink) WriteCombined(records []VideoRecord) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	file := fmt.Sprintf("%s_%s.csv", combinedFilePrefix, s.now().Format(fileTimeLayout))
	return s.write(file, combinedColumns, records, true)
}

// write goes through a temp file and a rename so a crash never leaves a
// half-written CSV behind.
func (s *CSVSink) write(file string, header []string, records []VideoRecord, withProfile bool) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, file)
	tmp := path + ".tmp"

	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(csvRow(r, withProfile)); err != nil {
			out.Close()
			os.Remove(tmp)
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	writeErr := w.Error()
	closeErr := out.Close()

	if writeErr != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("flush csv: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", tmp, closeErr)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return path, nil
}

func csvRow(r VideoRecord, withProfile bool) []string {
	row := make([]string, 0, len(combinedColumns))
	if withProfile {
		row = append(row, r.ProfileName, r.ProfileURL)
	}
	return append(row,
		r.VideoURL,
		strconv.FormatInt(r.Views, 10),
		strconv.FormatInt(r.Likes, 10),
		strconv.FormatInt(r.Bookmarks, 10),
		strconv.FormatInt(r.Comments, 10),
		r.ViewsRaw,
		r.LikesRaw,
		r.BookmarksRaw,
		r.CommentsRaw,
		r.ScrapedAt.Format(scrapedAtLayout),
	)
}

// sanitizeFileName keeps handles usable as file names. TikTok handles are
// [\w.-] already; anything else is replaced.
func sanitizeFileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			return r
		}
		return '_'
	}, name)
	clean = strings.Trim(clean, ".")
	if clean == "" {
		return "profile"
	}
	return clean
}
