package redflag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssess_HighRiskPhraseAlwaysHigh(t *testing.T) {
	cases := []struct {
		name     string
		symptoms string
		age      string
		wantFlag string
	}{
		{"chest pain", "I have chest pain since this morning", "30", "chest pain or pressure"},
		{"chest pain elderly", "crushing pain in my chest", "80", "chest pain or pressure"},
		{"breathing", "I can't breathe properly", "", "breathing difficulty"},
		{"shortness of breath", "shortness   of\tbreath when walking", "26", "breathing difficulty"},
		{"stroke", "sudden weakness and slurred speech", "55", "stroke-like signs"},
		{"fainting", "my father fainted twice today", "40", "fainting or confusion"},
		{"bleeding", "heavy bleeding from a cut that won't stop", "22", "severe bleeding"},
		{"allergy", "swelling of the tongue after eating peanuts", "19", "severe allergic reaction"},
		{"fever", "fever of 40.2 with chills", "33", "high fever with complication"},
		{"self-harm", "I keep thinking about hurting myself", "29", "self-harm ideation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Assess(tc.symptoms, tc.age, "")
			assert.Equal(t, LevelHigh, a.Level)
			require.NotEmpty(t, a.Flags)
			assert.Contains(t, a.Flags, tc.wantFlag)
		})
	}
}

func TestAssess_ExtraTextIsScreenedToo(t *testing.T) {
	a := Assess("mild headache", "30", "history of chest pain episodes")
	assert.Equal(t, LevelHigh, a.Level)
	assert.Contains(t, a.Flags, "chest pain or pressure")
}

func TestAssess_NoRiskPatternMidlifeAge(t *testing.T) {
	a := Assess("mild sore throat for 2 days", "26", "")
	assert.Equal(t, LevelNone, a.Level)
	assert.Empty(t, a.Flags)
	assert.False(t, a.HighRiskAge)
}

func TestAssess_AgeEscalation(t *testing.T) {
	t.Run("infant with fever", func(t *testing.T) {
		a := Assess("mild fever and runny nose", "1", "")
		assert.Equal(t, LevelMedium, a.Level)
		assert.True(t, a.HighRiskAge)
		assert.Empty(t, a.Flags)
	})
	t.Run("elderly with fever", func(t *testing.T) {
		a := Assess("low fever since yesterday", "70", "")
		assert.Equal(t, LevelMedium, a.Level)
		assert.True(t, a.HighRiskAge)
	})
	t.Run("elderly without fever or breathing token", func(t *testing.T) {
		a := Assess("sore knee after gardening", "70", "")
		assert.Equal(t, LevelNone, a.Level)
		assert.True(t, a.HighRiskAge)
	})
	t.Run("adult with fever stays none", func(t *testing.T) {
		a := Assess("low fever since yesterday", "30", "")
		assert.Equal(t, LevelNone, a.Level)
		assert.False(t, a.HighRiskAge)
	})
	t.Run("boundary 65 is high-risk", func(t *testing.T) {
		a := Assess("feverish and tired", "65", "")
		assert.Equal(t, LevelMedium, a.Level)
	})
	t.Run("boundary 2 is not high-risk", func(t *testing.T) {
		a := Assess("feverish and tired", "2", "")
		assert.Equal(t, LevelNone, a.Level)
		assert.False(t, a.HighRiskAge)
	})
}

func TestParseAge(t *testing.T) {
	cases := []struct {
		in    string
		want  int
		valid bool
	}{
		{"26", 26, true},
		{" 70 years ", 70, true},
		{"age: 8", 8, true},
		{"", 0, false},
		{"unknown", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseAge(tc.in)
		assert.Equal(t, tc.valid, ok, "input %q", tc.in)
		if tc.valid {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestAssess_Idempotent(t *testing.T) {
	first := Assess("chest pain and trouble breathing", "70", "on blood thinners")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Assess("chest pain and trouble breathing", "70", "on blood thinners"))
	}
}

func TestAssess_FlagsDeduplicatedAndSorted(t *testing.T) {
	a := Assess("chest pain, chest pressure, can't breathe, gasping for air", "40", "")
	assert.Equal(t, LevelHigh, a.Level)
	assert.Equal(t, []string{"breathing difficulty", "chest pain or pressure"}, a.Flags)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "chest pain now", Normalize("  Chest\t\tPAIN \n now "))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Sore Throat", "26", "")
	b := Fingerprint("sore   throat", "26", "")
	c := Fingerprint("sore throat", "27", "")
	assert.Equal(t, a, b, "normalization-equivalent input must fingerprint identically")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestLoadRulePacks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "extra"), 0o755))
	pack := `categories:
  - label: poisoning
    patterns:
      - 'swallowed\s+(bleach|detergent|pills)'
      - overdose
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra", "poison.yaml"), []byte(pack), 0o644))

	g := New()
	require.NoError(t, g.LoadRulePacks(dir))

	a := g.Assess("my kid swallowed bleach", "3", "")
	assert.Equal(t, LevelHigh, a.Level)
	assert.Contains(t, a.Flags, "poisoning")

	t.Run("builtin table unaffected", func(t *testing.T) {
		a := g.Assess("chest pain", "30", "")
		assert.Contains(t, a.Flags, "chest pain or pressure")
	})
}

func TestLoadRulePacks_InvalidPattern(t *testing.T) {
	dir := t.TempDir()
	pack := `categories:
  - label: broken
    patterns: ['(unclosed']
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(pack), 0o644))

	err := New().LoadRulePacks(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}
