package domain

import (
	"context"
	"sort"
	"time"
)

// MatchesEvent reports whether the volunteer is compatible with the event:
// the event's required skills are a subset of the volunteer's skills (an
// empty requirement set always matches), the event date is among the
// volunteer's available dates, and the event is open unless includeClosed.
// Skill comparison is case-normalized exact match.
func MatchesEvent(v *Volunteer, e *Event, includeClosed bool) bool {
	if !includeClosed && e.Status != EventStatusOpen {
		return false
	}
	if !containsDate(v.Availability, e.Date) {
		return false
	}
	have := make(map[string]struct{}, len(v.Skills))
	for _, s := range v.Skills {
		have[SkillKey(s)] = struct{}{}
	}
	for _, required := range e.RequiredSkills {
		if _, ok := have[SkillKey(required)]; !ok {
			return false
		}
	}
	return true
}

// FindEventsForVolunteer filters events by MatchesEvent and orders them by
// ascending event date, ties broken by urgency descending (Critical first),
// then by id for determinism.
func FindEventsForVolunteer(v *Volunteer, events []*Event, includeClosed bool) []*Event {
	matched := make([]*Event, 0)
	for _, e := range events {
		if MatchesEvent(v, e, includeClosed) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !SameDate(a.Date, b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Urgency.Rank() != b.Urgency.Rank() {
			return a.Urgency.Rank() > b.Urgency.Rank()
		}
		return a.ID < b.ID
	})
	return matched
}

// FindVolunteersForEvent filters volunteers by MatchesEvent and orders them
// by descending count of overlapping skills with the event's requirements,
// ties broken by identity.
func FindVolunteersForEvent(e *Event, volunteers []*Volunteer, includeClosed bool) []*Volunteer {
	matched := make([]*Volunteer, 0)
	overlap := make(map[string]int)
	for _, v := range volunteers {
		if MatchesEvent(v, e, includeClosed) {
			matched = append(matched, v)
			overlap[v.Email] = skillOverlap(v.Skills, e.RequiredSkills)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if overlap[a.Email] != overlap[b.Email] {
			return overlap[a.Email] > overlap[b.Email]
		}
		return a.Email < b.Email
	})
	return matched
}

func containsDate(dates []time.Time, date time.Time) bool {
	for _, d := range dates {
		if SameDate(d, date) {
			return true
		}
	}
	return false
}

func skillOverlap(skills, required []string) int {
	req := make(map[string]struct{}, len(required))
	for _, s := range required {
		req[SkillKey(s)] = struct{}{}
	}
	n := 0
	for _, s := range skills {
		if _, ok := req[SkillKey(s)]; ok {
			n++
		}
	}
	return n
}

// MatchingService resolves profiles and events from storage and runs the
// pure matching functions over a consistent snapshot. Read-only.
type MatchingService interface {
	// MatchEventsForVolunteer returns events compatible with the volunteer.
	// includeClosed is admin-facing and skips the open-status filter.
	MatchEventsForVolunteer(ctx context.Context, email string, includeClosed bool) ([]*Event, error)
	// MatchVolunteersForEvent returns volunteers compatible with the event.
	MatchVolunteersForEvent(ctx context.Context, eventID string) ([]*Volunteer, error)
}
