package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Oracle answers are free text. These helpers pull structured values out of
// them and report ok=false instead of guessing when nothing usable is found.

var (
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	fencePattern  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n?(.*?)\\s*```$")
)

// StripCodeFence removes a surrounding markdown code fence, if any
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ExtractNumbers returns every decimal number in text, in order
func ExtractNumbers(text string) []float64 {
	matches := numberPattern.FindAllString(text, -1)
	nums := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			nums = append(nums, v)
		}
	}
	return nums
}

// ExtractLabeledScore finds "label: 0.8" (case-insensitive; the separator may
// be ':', '=', '-' or omitted) and returns the number after the label.
func ExtractLabeledScore(text, label string) (float64, bool) {
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(label) + `\s*[:=\-]?\s*(-?\d+(?:\.\d+)?)`)
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NumbersInRange returns the numbers of nums within [lo, hi], in order
func NumbersInRange(nums []float64, lo, hi float64) []float64 {
	out := make([]float64, 0, len(nums))
	for _, v := range nums {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// ParseScore0to100 reads the first number in text as a 0-100 score
func ParseScore0to100(text string) (int, bool) {
	nums := ExtractNumbers(text)
	if len(nums) == 0 {
		return 0, false
	}
	v := nums[0]
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return int(v + 0.5), true
}

// ExtractJSONArray finds the first JSON array in text and returns its string
// items. Object items contribute their "name" field. Returns ok=false when no
// array can be decoded.
func ExtractJSONArray(text string) ([]string, bool) {
	text = StripCodeFence(text)
	for start := strings.IndexByte(text, '['); start >= 0; {
		end := matchingBracket(text, start)
		if end < 0 {
			return nil, false
		}
		if items, ok := decodeNameArray(text[start : end+1]); ok {
			return items, true
		}
		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

func decodeNameArray(raw string) ([]string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && strings.TrimSpace(obj.Name) != "" {
			out = append(out, strings.TrimSpace(obj.Name))
		}
	}
	return out, true
}

// matchingBracket returns the index of the ']' closing the '[' at start,
// skipping brackets inside JSON strings.
func matchingBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SplitLines is the fallback list parser: one item per non-empty line, with
// bullets and numbering removed.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(StripCodeFence(text), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•· \t")
		line = strings.TrimSpace(trimNumbering(line))
		line = strings.Trim(line, `"'`)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func trimNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return line[i+1:]
	}
	return line
}
