// Package logtail lists and tails the game server log files with bounded
// cost and directory-escape protection.
package logtail

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vein-tools/veind/pkg/errdefs"
)

// chunkSize is the backwards read granularity for tail scans.
const chunkSize = 4096

// Entry describes one log file, enumerated fresh per request.
type Entry struct {
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	SizeBytes     int64     `json:"size_bytes"`
	SizeHumanized string    `json:"size_humanized"`
	Modified      time.Time `json:"modified"`
}

// Content is the result of a tail or full read of one log file.
type Content struct {
	Filename      string `json:"filename"`
	LinesReturned int    `json:"lines_returned"`

	// TotalLines is only known for full reads (lines=0); bounded tail
	// scans do not walk the whole file.
	TotalLines int `json:"total_lines,omitempty"`

	Content string `json:"content"`
}

// Reader serves a single configured, non-recursive log directory.
type Reader struct {
	dir string
}

func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// List enumerates the *.log files in the log directory, newest first.
func (r *Reader) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: log directory", errdefs.ErrNotFound)
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".log") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// listed then removed; skip
			continue
		}
		entries = append(entries, Entry{
			Name:          de.Name(),
			Path:          filepath.Join(r.dir, de.Name()),
			SizeBytes:     info.Size(),
			SizeHumanized: humanize.Bytes(uint64(info.Size())),
			Modified:      info.ModTime().UTC(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}

// ValidateFilename rejects names that could escape the log directory.
// It runs before any filesystem access.
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty log filename", errdefs.ErrInvalidArgument)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: log filename %q must not contain path separators", errdefs.ErrInvalidArgument, name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: log filename %q", errdefs.ErrInvalidArgument, name)
	}
	return nil
}

// Tail returns the last n lines of the named log file. n == 0 returns the
// entire file along with its total line count. For n > 0 the read cost is
// bounded by the scanned tail region, not the file size.
func (r *Reader) Tail(name string, n int) (*Content, error) {
	if err := ValidateFilename(name); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: lines must be >= 0, got %d", errdefs.ErrInvalidArgument, n)
	}

	path := filepath.Join(r.dir, name)

	if n == 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: log file %q", errdefs.ErrNotFound, name)
			}
			return nil, err
		}
		total := countLines(data)
		return &Content{
			Filename:      name,
			LinesReturned: total,
			TotalLines:    total,
			Content:       string(data),
		}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: log file %q", errdefs.ErrNotFound, name)
		}
		return nil, err
	}
	defer f.Close()

	content, err := tailLines(f, n)
	if err != nil {
		return nil, err
	}
	return &Content{
		Filename:      name,
		LinesReturned: countLines([]byte(content)),
		Content:       content,
	}, nil
}

// tailLines reads backwards from EOF in fixed-size chunks until it has
// seen enough newlines to cover the last n lines, then trims to exactly n.
func tailLines(f *os.File, n int) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()
	if size == 0 {
		return "", nil
	}

	var tail []byte
	offset := size
	for offset > 0 {
		readSize := int64(chunkSize)
		if offset < readSize {
			readSize = offset
		}
		offset -= readSize

		chunk := make([]byte, readSize)
		if _, err := f.ReadAt(chunk, offset); err != nil && err != io.EOF {
			return "", err
		}
		tail = append(chunk, tail...)

		// n+1 newlines guarantee at least n complete lines in the buffer
		if countNewlines(tail) > n {
			break
		}
	}

	trailingNewline := tail[len(tail)-1] == '\n'
	lines := strings.Split(strings.TrimSuffix(string(tail), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := strings.Join(lines, "\n")
	if trailingNewline {
		out += "\n"
	}
	return out, nil
}

func countNewlines(b []byte) int {
	count := 0
	for _, c := range b {
		if c == '\n' {
			count++
		}
	}
	return count
}

// countLines counts lines the way splitlines does: a trailing newline
// does not start an empty last line.
func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := countNewlines(data)
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
