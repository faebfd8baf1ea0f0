package flows

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tripwell/tripctl/internal/pipeline"
)

// Seed values arrive from YAML, TOML and --set flags, so the same key may
// hold a string, a number or a list depending on its source. These
// helpers accept all of them.

// seedList returns a string list. A plain string is split on commas.
func seedList(pc pipeline.PipelineContext, key string) []string {
	v, ok := pc.SeedValue(key)
	if !ok || v == nil {
		return []string{}
	}
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		out := []string{}
		for part := range strings.SplitSeq(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}

// seedInt returns an integer seed value, or def when absent.
func seedInt(pc pipeline.PipelineContext, key string, def int) (int, error) {
	v, ok := pc.SeedValue(key)
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a number: %q", pipeline.ErrUnexpectedType, key, t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", pipeline.ErrUnexpectedType, key, v)
	}
}

// NormalizeCity trims a city name and collapses inner whitespace. Case is
// kept as typed: profile slugs saved by the web app embed the city verbatim.
func NormalizeCity(city string) string {
	return strings.Join(strings.Fields(city), " ")
}

// PlaceSlug builds the profile slug: the city, the budget with every
// non-alphanumeric character removed, then the travel party.
// PlaceSlug("Paris", "$100-200", "solo") is "Paris100200solo".
func PlaceSlug(city, budget, whoWith string) string {
	var b strings.Builder
	b.WriteString(city)
	for _, r := range budget {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	b.WriteString(whoWith)
	return b.String()
}

// MetaSlug builds the slug used by the meta creator: the lower-cased city
// with whitespace runs replaced by dashes, then the lower-cased season.
// MetaSlug("New York", "Summer") is "new-york-summer".
func MetaSlug(city, season string) string {
	lower := cases.Lower(language.Und)
	return strings.Join(strings.Fields(lower.String(city)), "-") + "-" + lower.String(season)
}
