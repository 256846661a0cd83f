package aof

import (
	"bufio"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Entry is one replayable command, already resolved to the shard index
// that was active when it was logged.
type Entry struct {
	Shard int
	Args  []string
}

// LoadAll reads path line by line and returns the replayable entries
// (§4.5 "Load"). Malformed lines are logged and skipped; a missing file
// yields an empty, non-error result.
func LoadAll(path string, logger zerolog.Logger) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	activeShard := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		cmd := strings.ToUpper(fields[0])
		if cmd == "SELECT" {
			if len(fields) != 2 {
				logger.Warn().Str("component", "aof").Str("line", line).Msg("malformed SELECT line, skipping")
				continue
			}
			idx, ok := parseShardIndex(fields[1])
			if !ok {
				logger.Warn().Str("component", "aof").Str("line", line).Msg("malformed SELECT index, skipping")
				continue
			}
			activeShard = idx
			continue
		}

		entries = append(entries, Entry{Shard: activeShard, Args: fields})
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

func parseShardIndex(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
