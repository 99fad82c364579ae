package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const stdTimeLayout = "2006/01/02 15:04:05"

// Entry is one log line split into its parts.
type Entry struct {
	Time      time.Time
	Component string
	Message   string
	Raw       string
}

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(fs afero.Fs, path string, maxLines int) ([]string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	file, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Parse splits a line written by the standard logger with a "[component]"
// prefix. Lines in any other shape come back with only Message and Raw set.
func Parse(line string) Entry {
	entry := Entry{Message: line, Raw: line}
	if len(line) < len(stdTimeLayout) {
		return entry
	}
	ts, err := time.ParseInLocation(stdTimeLayout, line[:len(stdTimeLayout)], time.Local)
	if err != nil {
		return entry
	}
	entry.Time = ts
	rest := strings.TrimSpace(line[len(stdTimeLayout):])
	if strings.HasPrefix(rest, "[") {
		if end := strings.Index(rest, "]"); end > 0 {
			entry.Component = rest[1:end]
			rest = strings.TrimSpace(rest[end+1:])
		}
	}
	entry.Message = rest
	return entry
}

// Filter keeps the lines logged by component. An empty component keeps all.
func Filter(lines []string, component string) []string {
	component = strings.TrimSpace(component)
	if component == "" {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.EqualFold(Parse(line).Component, component) {
			out = append(out, line)
		}
	}
	return out
}
