package models

import (
	"strings"
	"time"

	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
)

// Registrant is the aggregate for one person awaiting or holding a pairing.
//
// Invariants:
//   - Email and NetID are each globally unique across all registrants
//   - IsMatched is true exactly when MatchedWith is non-nil
//   - A registrant is never matched to itself
//   - After a successful pair commit, the relation is symmetric: if A's
//     MatchedWith is B then B's MatchedWith is A
//   - The only unmatch transition is self-healing, taken when the recorded
//     partner record no longer exists
type Registrant struct {
	ID             id.RegistrantID  `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	NetID          string           `json:"netId"`
	Major          string           `json:"major"`
	GraduationYear int              `json:"graduationYear"`
	IsMatched      bool             `json:"isMatched"`
	MatchedWith    *id.RegistrantID `json:"matchedWith"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// NewRegistrantParams carries the caller-supplied fields for admission.
type NewRegistrantParams struct {
	Name           string
	Email          string
	NetID          string
	Major          string
	GraduationYear int
}

// NewRegistrant validates params and constructs an unmatched registrant. All
// violated fields are collected into a single validation error so the caller
// can report every problem at once.
func NewRegistrant(registrantID id.RegistrantID, params NewRegistrantParams, now time.Time) (*Registrant, error) {
	var violations []string
	if strings.TrimSpace(params.Name) == "" {
		violations = append(violations, "name")
	}
	if strings.TrimSpace(params.Email) == "" || !strings.Contains(params.Email, "@") {
		violations = append(violations, "email")
	}
	if strings.TrimSpace(params.NetID) == "" {
		violations = append(violations, "netId")
	}
	if strings.TrimSpace(params.Major) == "" {
		violations = append(violations, "major")
	}
	if params.GraduationYear <= 0 {
		violations = append(violations, "graduationYear")
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("missing or invalid registration fields", violations...)
	}

	return &Registrant{
		ID:             registrantID,
		Name:           strings.TrimSpace(params.Name),
		Email:          strings.ToLower(strings.TrimSpace(params.Email)),
		NetID:          strings.TrimSpace(params.NetID),
		Major:          strings.TrimSpace(params.Major),
		GraduationYear: params.GraduationYear,
		IsMatched:      false,
		MatchedWith:    nil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanPairWith checks the pairing invariants against a candidate.
// Use with ApplyMatch; the store re-checks the unmatched condition at commit
// time, this guards the obvious violations before a commit is attempted.
func (r *Registrant) CanPairWith(other *Registrant) error {
	if other == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "pair candidate is required")
	}
	if r.ID == other.ID {
		return dErrors.New(dErrors.CodeInvariantViolation, "registrant cannot be paired with itself")
	}
	if r.IsMatched || other.IsMatched {
		return dErrors.New(dErrors.CodeInvariantViolation, "both registrants must be unmatched")
	}
	return nil
}

// ApplyMatch records the pairing on this side of the relation.
func (r *Registrant) ApplyMatch(partner id.RegistrantID, now time.Time) {
	p := partner
	r.IsMatched = true
	r.MatchedWith = &p
	r.UpdatedAt = now
}

// ApplyUnmatch reverts the registrant to the unmatched state. Only the
// self-healing path takes this transition.
func (r *Registrant) ApplyUnmatch(now time.Time) {
	r.IsMatched = false
	r.MatchedWith = nil
	r.UpdatedAt = now
}

// Summary is the partner view exposed to the other side of a pairing. It
// deliberately excludes identifiers and match state.
type Summary struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Major          string `json:"major"`
	GraduationYear int    `json:"graduationYear"`
}

// Summary returns the registrant's partner-facing view.
func (r *Registrant) Summary() *Summary {
	return &Summary{
		Name:           r.Name,
		Email:          r.Email,
		Major:          r.Major,
		GraduationYear: r.GraduationYear,
	}
}

// Clone returns a deep copy so in-memory store reads never alias store state.
func (r *Registrant) Clone() *Registrant {
	out := *r
	if r.MatchedWith != nil {
		mw := *r.MatchedWith
		out.MatchedWith = &mw
	}
	return &out
}
