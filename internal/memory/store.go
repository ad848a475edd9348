package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Store manages the per-user markdown memory directories. Each user gets
// <base>/<username>/ holding daily YYYY-MM-DD.md notes plus WEIGHT.md.
type Store struct {
	base string
	log  zerolog.Logger
}

func NewStore(base string, log zerolog.Logger) *Store {
	return &Store{base: base, log: log}
}

var dailyFileRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

func (s *Store) UserDir(username string) string {
	return filepath.Join(s.base, username)
}

func (s *Store) EnsureUserDir(username string) error {
	return os.MkdirAll(s.UserDir(username), 0o755)
}

func (s *Store) DailyPath(username, date string) string {
	return filepath.Join(s.UserDir(username), date+".md")
}

// ReadDaily returns the day's note, or "" when none exists.
func (s *Store) ReadDaily(username, date string) (string, error) {
	b, err := os.ReadFile(s.DailyPath(username, date))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(b), nil
}

func (s *Store) WriteDaily(username, date, content string) error {
	if err := s.EnsureUserDir(username); err != nil {
		return err
	}
	return os.WriteFile(s.DailyPath(username, date), []byte(content), 0o644)
}

// ListDailyDates returns the dates with a daily note, newest first.
func (s *Store) ListDailyDates(username string) ([]string, error) {
	entries, err := os.ReadDir(s.UserDir(username))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	dates := make([]string, 0)
	for _, e := range entries {
		if !e.IsDir() && dailyFileRegex.MatchString(e.Name()) {
			dates = append(dates, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

const healthHeading = "## Apple Health"

// UpsertHealthSection splices the rendered Apple Health section into the
// day's note: replace an existing section, otherwise insert before Daily
// Totals, otherwise append. A missing note is created with a date heading.
func (s *Store) UpsertHealthSection(username, date, section string) error {
	content, err := s.ReadDaily(username, date)
	if err != nil {
		return err
	}

	switch {
	case content == "":
		content = fmt.Sprintf("# %s\n%s", date, section)
	case strings.Contains(content, healthHeading):
		content = replaceSection(content, healthHeading, section)
	case strings.Contains(content, "## Daily Totals"):
		content = strings.Replace(content, "## Daily Totals", section+"\n## Daily Totals", 1)
	default:
		content += section
	}

	return s.WriteDaily(username, date, content)
}

// replaceSection swaps the block starting at "\n<heading>\n" up to the next
// "\n## " heading (or end of file) with the replacement.
func replaceSection(content, heading, replacement string) string {
	marker := "\n" + heading + "\n"
	start := strings.Index(content, marker)
	if start < 0 {
		return content + replacement
	}

	rest := content[start+len(marker):]
	end := len(content)
	if next := strings.Index(rest, "\n## "); next >= 0 {
		end = start + len(marker) + next
	}
	return content[:start] + replacement + content[end:]
}

// ParseHealthSection extracts the Apple Health metric table from a daily
// note as label -> display value.
func ParseHealthSection(content string) map[string]string {
	health := make(map[string]string)

	parts := strings.SplitN(content, healthHeading, 2)
	if len(parts) < 2 {
		return health
	}
	section := parts[1]
	if next := strings.Index(section, "##"); next >= 0 {
		section = section[:next]
	}

	for _, line := range strings.Split(section, "\n") {
		if !strings.HasPrefix(line, "|") || strings.Contains(line, "Metric") || strings.Contains(line, "---") {
			continue
		}
		cols := make([]string, 0, 2)
		for _, c := range strings.Split(line, "|") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) >= 2 {
			health[cols[0]] = cols[1]
		}
	}
	return health
}

// ParseHealthForDate reads the day's note and extracts the health table.
func (s *Store) ParseHealthForDate(username, date string) (map[string]string, error) {
	content, err := s.ReadDaily(username, date)
	if err != nil {
		return nil, err
	}
	return ParseHealthSection(content), nil
}

const weightFile = "WEIGHT.md"
const weightHeader = "# Weight Log\n\n| Date | Weight | Notes |\n|------|--------|-------|\n"

// AppendWeightRows adds weight table rows for dates not already logged.
func (s *Store) AppendWeightRows(username string, rows map[string]float64) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.EnsureUserDir(username); err != nil {
		return err
	}

	path := filepath.Join(s.UserDir(username), weightFile)
	content := ""
	if b, err := os.ReadFile(path); err == nil {
		content = string(b)
	}
	if content == "" {
		content = weightHeader
	}

	dates := make([]string, 0, len(rows))
	for date := range rows {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		if !strings.Contains(content, date) {
			content += fmt.Sprintf("| %s | %s lbs | From Apple Health |\n", date, trimFloat(rows[date]))
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (s *Store) ReadWeightLog(username string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.UserDir(username), weightFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(b), nil
}

func trimFloat(f float64) string {
	out := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(out, ".0")
}
