// Package redflag implements the rule-based safety gate that screens
// symptom text before any completion call is made. The gate is deliberately
// conservative: escalating a borderline case is acceptable, missing an
// emergency is not.
package redflag

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Level is the gate's overall risk verdict.
type Level string

const (
	LevelNone   Level = "none"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Assessment is the gate's output for one request. It is immutable once
// produced; the orchestrator only reads Level to decide whether to start.
type Assessment struct {
	Level       Level    `json:"level"`
	Flags       []string `json:"flags"`
	HighRiskAge bool     `json:"high_risk_age"`
}

// Category pairs a human-readable label with the patterns that trigger it.
// Matching short-circuits at the first satisfied pattern within a category.
type Category struct {
	Label    string
	Patterns []*regexp.Regexp
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonDigits     = regexp.MustCompile(`\D`)

	// mediumSignal is the broader fever/breathing token check used for
	// age-based escalation; the category patterns above are narrower.
	mediumSignal = regexp.MustCompile(`fever|feverish|temperature|breath`)
)

// builtinCategories is the fixed red-flag table, in priority order.
func builtinCategories() []Category {
	mk := func(label string, exprs ...string) Category {
		c := Category{Label: label}
		for _, e := range exprs {
			c.Patterns = append(c.Patterns, regexp.MustCompile(e))
		}
		return c
	}
	return []Category{
		mk("chest pain or pressure",
			`chest\s+(pain|pressure|tightness|discomfort)`,
			`(crushing|squeezing)\s+(pain|sensation)\s+in\s+(my\s+)?chest`,
			`pain\s+radiating\s+to\s+(the\s+)?(left\s+arm|jaw|shoulder)`,
		),
		mk("breathing difficulty",
			`(trouble|difficulty|struggling)\s+(to\s+)?breath(e|ing)`,
			`short(ness)?\s+of\s+breath`,
			`can\s*('|no)?t\s+breathe`,
			`gasping\s+for\s+(air|breath)`,
			`lips\s+(turning|turned)\s+blue`,
		),
		mk("stroke-like signs",
			`(face|facial)\s+droop(ing)?`,
			`slurred\s+speech`,
			`sudden\s+(numbness|weakness)`,
			`weakness\s+on\s+one\s+side`,
			`sudden\s+(vision\s+loss|trouble\s+seeing)`,
			`worst\s+headache\s+of\s+(my|their)\s+life`,
		),
		mk("fainting or confusion",
			`faint(ed|ing)?`,
			`passed\s+out`,
			`unconscious|unresponsive`,
			`confus(ed|ion)`,
			`hard\s+to\s+wake`,
		),
		mk("severe bleeding",
			`(severe|heavy|uncontrolled)\s+bleeding`,
			`bleeding\s+(that\s+)?(won\s*'?t|will\s+not|doesn\s*'?t)\s+stop`,
			`(coughing|vomiting)\s+(up\s+)?blood`,
			`blood\s+in\s+(stool|urine|vomit)`,
		),
		mk("severe allergic reaction",
			`anaphyla`,
			`(swelling|swollen)\s+(of\s+the\s+)?(tongue|throat|lips|face)`,
			`throat\s+(is\s+)?(closing|tightening)`,
			`hives\s+(all\s+over|spreading)`,
		),
		mk("high fever with complication",
			`fever\s+(of\s+|above\s+|over\s+)?(39|40|41|42)(\s*(\.|,)\s*\d)?`,
			`fever\s+.*(stiff\s+neck|rash|seizure|convulsion)`,
			`(stiff\s+neck|rash|seizure|convulsion)\s+.*fever`,
			`fever\s+(for\s+)?(more\s+than\s+|over\s+)?(4|5|6|7)\s+days`,
		),
		mk("self-harm ideation",
			`suicid(e|al)`,
			`(hurt|harm|kill)(ing)?\s+(myself|themselves)`,
			`self\s*-?\s*harm`,
			`end(ing)?\s+(my|their)\s+life`,
			`don\s*'?t\s+want\s+to\s+(live|be\s+alive)`,
		),
	}
}

// Gate evaluates symptom text against the red-flag table. The zero value is
// not usable; construct with New. A Gate is immutable after rule packs are
// loaded and safe for concurrent use.
type Gate struct {
	categories []Category
}

func New() *Gate {
	return &Gate{categories: builtinCategories()}
}

// Categories returns the labels currently active, in evaluation order.
func (g *Gate) Categories() []string {
	out := make([]string, 0, len(g.categories))
	for _, c := range g.categories {
		out = append(out, c.Label)
	}
	return out
}

// Assess classifies the request input. It is side-effect-free and
// idempotent: identical arguments always yield identical results.
func (g *Gate) Assess(symptoms, age, extra string) Assessment {
	text := Normalize(symptoms + " " + extra)

	hits := map[string]bool{}
	for _, cat := range g.categories {
		for _, p := range cat.Patterns {
			if p.MatchString(text) {
				hits[cat.Label] = true
				break
			}
		}
	}

	flags := make([]string, 0, len(hits))
	for label := range hits {
		flags = append(flags, label)
	}
	sort.Strings(flags)

	years, ok := parseAge(age)
	highRiskAge := ok && (years < 2 || years >= 65)

	level := LevelNone
	switch {
	case len(flags) > 0:
		level = LevelHigh
	case highRiskAge && mediumSignal.MatchString(text):
		level = LevelMedium
	}

	return Assessment{Level: level, Flags: flags, HighRiskAge: highRiskAge}
}

// Assess runs the built-in table without rule packs.
func Assess(symptoms, age, extra string) Assessment {
	return New().Assess(symptoms, age, extra)
}

// Normalize lowercases the text and collapses whitespace runs to single
// spaces, the canonical form all patterns are written against.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(text), " "))
}

// parseAge extracts an integer age from free text by stripping everything
// that is not a digit. Empty or unparsable input is "no age signal", never
// an error.
func parseAge(text string) (int, bool) {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	years, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return years, true
}
