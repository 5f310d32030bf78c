// Package watchlist reads the symbol watchlist file and watches it for
// changes. The file holds one 6 digit symbol code per line; blank lines
// and # comments are ignored.
package watchlist

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/atrade-lab/tmonitor/pkg/errors"
)

const symbolLength = 6

// Parse reads symbol codes from r. Lines are trimmed, blank lines and
// lines starting with # are skipped, and a trailing # comment is
// stripped. Entries that are not exactly 6 digits are dropped.
// Duplicates keep their first occurrence.
func Parse(r io.Reader) ([]string, error) {
	var symbols []string

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		if !validSymbol(line) {
			continue
		}

		if _, ok := seen[line]; ok {
			continue
		}

		seen[line] = struct{}{}
		symbols = append(symbols, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeWatchlistReadFailed, "failed to scan watchlist", err)
	}

	return symbols, nil
}

// Load reads and parses the watchlist file at path.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrCodeWatchlistNotFound, err, "watchlist file %s not found", path)
		}

		return nil, errors.Wrapf(errors.ErrCodeWatchlistReadFailed, err, "failed to open watchlist file %s", path)
	}
	defer f.Close()

	return Parse(f)
}

func validSymbol(s string) bool {
	if len(s) != symbolLength {
		return false
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}
