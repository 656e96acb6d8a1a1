package disambiguate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// patternRule is one deterministic rewrite. replace receives the full match
// followed by capture groups and returns the replacement text; returning the
// match unchanged suppresses the rule for that occurrence.
type patternRule struct {
	re      *regexp.Regexp
	replace func(m []string) string
	reason  string
}

// literal builds a replace function from a template with $1/$2 placeholders.
func literal(template string) func(m []string) string {
	return func(m []string) string {
		out := template
		for i := len(m) - 1; i >= 1; i-- {
			out = strings.ReplaceAll(out, "$"+strconv.Itoa(i), m[i])
		}
		return out
	}
}

// patternRules are the deterministic tier's rewrite families: concrete grade
// formatting, misheard site terminology, time fragments, and measurement
// spellings. Financial text (currency symbols and amounts) is deliberately
// not rewritten here; money changes always go through the suggestion and
// review flow.
var patternRules = []patternRule{
	// Concrete grades normalize to the C25/30 slash format.
	{regexp.MustCompile(`(?i)\bc(\d{2})(\d{2})\b`), literal("C$1/$2"), "concrete grade formatting"},
	{regexp.MustCompile(`(?i)\bc(\d{2})-(\d{2})\b`), literal("C$1/$2"), "concrete grade formatting"},
	{regexp.MustCompile(`(?i)\bc(\d{2})\s*slash\s*(\d{2})\b`), literal("C$1/$2"), "spoken slash in concrete grade"},
	{regexp.MustCompile(`(?i)\bc\s*(\d{2})\s*/\s*(\d{2})\b`), literal("C$1/$2"), "concrete grade formatting"},

	// Misheard construction terms.
	{regexp.MustCompile(`(?i)\bsafe farming\b`), literal("safe working"), "misheard safety phrase"},
	{regexp.MustCompile(`(?i)\bengine protection\b`), literal("edge protection"), "misheard safety phrase"},
	{regexp.MustCompile(`(?i)\bground forest lab\b`), literal("ground floor slab"), "misheard structural term"},
	{regexp.MustCompile(`(?i)\bcrack and\b`), literal("crack on"), "misheard colloquialism"},
	{regexp.MustCompile(`(?i)\b7\s*end\b`), literal("7N"), "block strength notation"},
	{regexp.MustCompile(`(?i)\b7\s*n\b`), literal("7N"), "block strength notation"},
	{regexp.MustCompile(`\bJC[PB]\b`), literal("JCB"), "equipment name"},
	{regexp.MustCompile(`(?i)\bready mixed?\b`), literal("ready-mix"), "material name"},
	{regexp.MustCompile(`(?i)\bshutter ring\b`), literal("shuttering"), "misheard formwork term"},
	{regexp.MustCompile(`(?i)\bform work\b`), literal("formwork"), "compound term"},

	// Time fragments. "at 30" is the classic dropped-hour recognition error
	// for morning deliveries.
	{regexp.MustCompile(`(?i)\bat 30\b`), literal("at 8:30"), "dropped hour in delivery time"},
	{
		re: regexp.MustCompile(`(?i)\bat (\d{1,2})(:\d{2}|\d|\s*(?:am|pm|hours?|minutes?|cubic|tonnes?|bags?))?`),
		replace: func(m []string) string {
			if m[2] != "" {
				return m[0] // already a full time, or not a time at all
			}
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 6 || n > 20 {
				return m[0]
			}
			return fmt.Sprintf("at %s:30", m[1])
		},
		reason: "incomplete clock time",
	},
	{regexp.MustCompile(`(?i)\bhalf (\d{1,2})\b`), literal("$1:30"), "spoken half-hour"},
	{regexp.MustCompile(`(?i)\bquarter past (\d{1,2})\b`), literal("$1:15"), "spoken quarter-hour"},
	{
		re: regexp.MustCompile(`(?i)\bquarter to (\d{1,2})\b`),
		replace: func(m []string) string {
			h, err := strconv.Atoi(m[1])
			if err != nil {
				return m[0]
			}
			return fmt.Sprintf("%d:45", h-1)
		},
		reason: "spoken quarter-hour",
	},

	// Measurement spellings.
	{regexp.MustCompile(`(?i)(\d+)\s*mil\b`), literal("$1mm"), "unit abbreviation"},
	{
		re: regexp.MustCompile(`(?i)(\d+)\s*(meters?)\b`),
		replace: func(m []string) string {
			unit := "metre"
			if strings.EqualFold(m[2], "meters") {
				unit = "metres"
			}
			return m[1] + " " + unit
		},
		reason: "metric spelling",
	},
	{regexp.MustCompile(`(?i)\bcubic meters?\b`), literal("cubic metres"), "metric spelling"},
}

// applyPatterns runs every deterministic rule over text and returns the
// rewritten text plus one Change per modified occurrence. Rules apply in
// order; later rules see earlier rules' output. Change positions refer to
// the text as it stood when that rule ran.
func applyPatterns(text string) (string, []Change) {
	var changes []Change
	for _, rule := range patternRules {
		text = applyRule(text, rule, &changes)
	}
	return text, changes
}

func applyRule(text string, rule patternRule, changes *[]Change) string {
	locs := rule.re.FindAllStringSubmatchIndex(text, -1)
	if locs == nil {
		return text
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		match := groupsFor(text, loc)
		rep := rule.replace(match)
		b.WriteString(text[last:loc[0]])
		if rep != match[0] {
			*changes = append(*changes, Change{
				Original:   match[0],
				Corrected:  rep,
				Position:   loc[0],
				Confidence: 95,
				Method:     MethodPattern,
				Reason:     rule.reason,
				Applied:    true,
			})
		}
		b.WriteString(rep)
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// groupsFor extracts the full match and capture groups from a submatch index
// slice. Unmatched optional groups are empty strings.
func groupsFor(text string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			out[i] = ""
			continue
		}
		out[i] = text[start:end]
	}
	return out
}
