// Package extract turns free-text model responses into structured values.
// It is deliberately forgiving: a malformed line is dropped, never fatal,
// and the worst case for any input is an empty result.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"marketbot/internal/grammar"
	"marketbot/internal/model"
)

var (
	citationRe = regexp.MustCompile(`\[\d+\]`)
	dateRe     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	numberRe   = regexp.MustCompile(`-?\$?\d[\d,]*(?:\.\d+)?`)
)

// StripCitations removes bracketed reference markers like [1] or [2][3]
// that search-backed models append as provenance footnotes.
func StripCitations(s string) string {
	return strings.TrimSpace(citationRe.ReplaceAllString(s, ""))
}

// Records parses a response under the line-JSON grammar: each candidate is
// one self-contained JSON-object line. Lines that fail to decode are
// skipped without aborting extraction of the rest. The grammar's sentinel
// short-circuits to an empty result.
func Records(text string, g grammar.Grammar) []model.Record {
	content := StripCitations(text)
	if content == "" {
		return nil
	}
	if g.Sentinel != "" && strings.Contains(strings.ToUpper(content), g.Sentinel) {
		return nil
	}

	var out []model.Record
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			continue
		}
		if r, ok := g.Decode(m); ok {
			out = append(out, r)
		}
	}
	return out
}

// NumericFields parses a response under the key-value grammar: fields
// appear as "LABEL: value" lines. Labels match case-insensitively and the
// first numeric token on a matching line becomes the value, tolerant of
// dollar signs, thousands separators, negatives, and decimals. A label
// with no numeric token is simply absent from the result.
func NumericFields(text string, labels []string) map[string]float64 {
	content := StripCitations(text)
	out := make(map[string]float64, len(labels))
	if content == "" {
		return out
	}
	lines := strings.Split(content, "\n")
	// Exact head matches bind first so a drifted line like
	// "EPS ESTIMATE: ..." cannot shadow a plain "EPS: ..." line.
	for pass := 0; pass < 2; pass++ {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			colon := strings.Index(line, ":")
			if colon < 0 {
				continue
			}
			head := strings.ToUpper(strings.TrimSpace(line[:colon]))
			for _, label := range labels {
				up := strings.ToUpper(label)
				if _, seen := out[up]; seen {
					continue
				}
				if pass == 0 && head != up {
					continue
				}
				if pass == 1 && !strings.Contains(head, up) {
					continue
				}
				if v, ok := firstNumber(line[colon+1:]); ok {
					out[up] = v
				}
			}
		}
	}
	return out
}

// FirstDate returns the first ISO 8601 date token in s.
func FirstDate(s string) (string, bool) {
	d := dateRe.FindString(s)
	return d, d != ""
}

// ParseMoney parses a dollar-amount string like "$2,500,000" or "-1.25"
// into a float.
func ParseMoney(s string) (float64, bool) {
	return firstNumber(s)
}

func firstNumber(s string) (float64, bool) {
	tok := numberRe.FindString(s)
	if tok == "" {
		return 0, false
	}
	tok = strings.ReplaceAll(tok, "$", "")
	tok = strings.ReplaceAll(tok, ",", "")
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
