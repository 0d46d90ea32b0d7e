package nbp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/pit/date"
)

const attrOn = "on"

// Store persists fixings in a folder, one file per year, one JSON object per
// line and per day:
//
//	{"EUR":4.3434,"USD":3.9432,"on":"2024-01-02"}
type Store struct {
	Dir string
}

// DefaultDir returns the default store folder in the user cache.
func DefaultDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "pitc", "exchange-rates"), nil
}

func (s Store) filename(year int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%04d.jsonl", year))
}

// Load reads the fixings of a year. A missing year is reported with an error
// wrapping fs.ErrNotExist.
func (s Store) Load(year int) (Table, error) {
	filename := s.filename(year)
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var t Table
	scanner := bufio.NewScanner(bytes.NewReader(content))
	i := 0
	for scanner.Scan() {
		i++
		txt := scanner.Text()
		// Start simply ignoring empty lines.
		if strings.TrimSpace(txt) == "" {
			continue
		}
		row, err := parseLine(txt)
		if err != nil {
			return nil, fmt.Errorf("parse error %s:%v: %w", filename, i, err)
		}
		t = append(t, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	t.sort()
	return t, nil
}

// parseLine reads one persisted day.
func parseLine(txt string) (Row, error) {
	jobj := make(map[string]any)
	if err := json.Unmarshal([]byte(txt), &jobj); err != nil {
		return Row{}, fmt.Errorf("not a correct json: %w", err)
	}

	jvalue, ok := jobj[attrOn]
	if !ok {
		return Row{}, fmt.Errorf("missing the property %q with a date", attrOn)
	}
	jstring, ok := jvalue.(string)
	if !ok {
		return Row{}, fmt.Errorf("property %q must be of type 'string'", attrOn)
	}
	on, err := date.Parse(jstring)
	if err != nil {
		return Row{}, fmt.Errorf("property %q must be a valid date: %w", attrOn, err)
	}

	// Read all other attributes as (currency, rate) pairs.
	row := Row{On: on, Rates: make(map[string]float64)}
	for cur, jrate := range jobj {
		if cur == attrOn {
			continue
		}
		rate, ok := jrate.(float64)
		if !ok {
			return Row{}, fmt.Errorf("property %q must be a number", cur)
		}
		row.Rates[cur] = rate
	}
	return row, nil
}

// Save replaces the fixings of a year.
func (s Store) Save(year int, t Table) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, row := range t {
		jobj := make(map[string]any, len(row.Rates)+1)
		jobj[attrOn] = row.On
		for cur, rate := range row.Rates {
			jobj[cur] = rate
		}
		line, err := json.Marshal(jobj)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	// write aside, then rename, so that a year file is never half written.
	filename := s.filename(year)
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filename)
}
