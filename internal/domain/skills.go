package domain

import "strings"

// Skills is the fixed vocabulary of volunteer skill tags. Event required
// skills and profile skills must be drawn from this list; comparison is
// case-insensitive on the normalized form.
var Skills = []string{
	"First Aid",
	"Logistics",
	"Event Setup",
	"Public Speaking",
	"Registration",
	"Tech Support",
	"Catering",
	"Marketing",
	"Fundraising",
	"Photography",
	"Social Media",
	"Team Leadership",
	"Translation",
}

var skillsByKey = func() map[string]string {
	m := make(map[string]string, len(Skills))
	for _, s := range Skills {
		m[SkillKey(s)] = s
	}
	return m
}()

// SkillKey returns the case-normalized comparison key for a skill tag.
func SkillKey(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// CanonicalSkill returns the canonical spelling of a skill tag and whether
// the tag belongs to the vocabulary.
func CanonicalSkill(tag string) (string, bool) {
	s, ok := skillsByKey[SkillKey(tag)]
	return s, ok
}

// CanonicalSkills maps all tags to their canonical spelling, dropping
// duplicates. It returns false if any tag is outside the vocabulary.
func CanonicalSkills(tags []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		s, ok := CanonicalSkill(t)
		if !ok {
			return nil, false
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, true
}

// Urgency is an event urgency level. Levels are ordered Low < Medium < High < Critical.
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

// UrgencyLevels lists all urgency levels in ascending order.
var UrgencyLevels = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

// ParseUrgency matches a string to an urgency level, case-insensitively.
func ParseUrgency(s string) (Urgency, bool) {
	for _, u := range UrgencyLevels {
		if strings.EqualFold(strings.TrimSpace(s), string(u)) {
			return u, true
		}
	}
	return "", false
}

// Rank returns the ordering rank of the urgency level (Low=0 .. Critical=3).
// Unknown levels rank below Low.
func (u Urgency) Rank() int {
	for i, level := range UrgencyLevels {
		if u == level {
			return i
		}
	}
	return -1
}
