package synthetic

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	fence = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	// "key": "value" with backslash escapes, tolerant of anything between pairs
	quotedPair = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// parseList splits a comma or newline separated reply into trimmed items. Bullets, numbering,
// quotes and a trailing period are dropped.
func parseList(reply string) []string {
	reply = stripFence(reply)
	fields := strings.FieldsFunc(reply, func(r rune) bool { return r == ',' || r == '\n' })

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.TrimLeft(f, "-*•0123456789.) ")
		f = strings.Trim(f, `"'`+"` .")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseDescriptions reads a name->description object. Strict JSON is tried first on the outermost
// {...} span; if the model broke the syntax, quoted key/value pairs are scraped instead.
func parseDescriptions(reply string) map[string]string {
	reply = stripFence(reply)

	if start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}"); start >= 0 && end > start {
		var m map[string]string
		if err := json.Unmarshal([]byte(reply[start:end+1]), &m); err == nil {
			return m
		}
	}

	out := map[string]string{}
	for _, match := range quotedPair.FindAllStringSubmatch(reply, -1) {
		out[unquote(match[1])] = unquote(match[2])
	}
	return out
}

func stripFence(s string) string {
	if m := fence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func unquote(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
