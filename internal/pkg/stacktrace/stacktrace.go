package stacktrace

import "strings"

// Shorten extracts only the frames that point into this repository's
// internal packages from a raw debug.Stack dump. The full stack is noisy in
// structured logs; the internal frames are what matter when triaging a panic.
func Shorten(stack []byte) []string {
	var frames []string

	lines := strings.Split(string(stack), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "/internal/") || !strings.Contains(line, ".go:") {
			continue
		}

		end := strings.Index(line[strings.Index(line, ".go:"):], " ")
		if end != -1 {
			line = line[:strings.Index(line, ".go:")+end]
		}
		if idx := strings.Index(line, "/internal/"); idx != -1 {
			frames = append(frames, line[idx+1:])
		}
	}

	return frames
}
