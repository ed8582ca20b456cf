package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
)

func violatedFields(t *testing.T, err error) []string {
	t.Helper()
	var dErr *dErrors.Error
	require.True(t, errors.As(err, &dErr))
	return dErr.Fields()
}

func validParams() NewRegistrantParams {
	return NewRegistrantParams{
		Name:           "Wei Chen",
		Email:          "wc881@rice.edu",
		NetID:          "wc881",
		Major:          "Computer Science",
		GraduationYear: 2027,
	}
}

func TestNewRegistrant(t *testing.T) {
	now := time.Now()

	t.Run("constructs an unmatched registrant", func(t *testing.T) {
		registrantID := id.NewRegistrantID()
		r, err := NewRegistrant(registrantID, validParams(), now)
		require.NoError(t, err)

		assert.Equal(t, registrantID, r.ID)
		assert.Equal(t, "Wei Chen", r.Name)
		assert.Equal(t, "wc881@rice.edu", r.Email)
		assert.False(t, r.IsMatched)
		assert.Nil(t, r.MatchedWith)
		assert.Equal(t, now, r.CreatedAt)
		assert.Equal(t, now, r.UpdatedAt)
	})

	t.Run("trims whitespace and lowercases email", func(t *testing.T) {
		params := validParams()
		params.Name = "  Wei Chen  "
		params.Email = " WC881@Rice.EDU "

		r, err := NewRegistrant(id.NewRegistrantID(), params, now)
		require.NoError(t, err)
		assert.Equal(t, "Wei Chen", r.Name)
		assert.Equal(t, "wc881@rice.edu", r.Email)
	})

	t.Run("collects every violated field", func(t *testing.T) {
		_, err := NewRegistrant(id.NewRegistrantID(), NewRegistrantParams{}, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.ElementsMatch(t,
			[]string{"name", "email", "netId", "major", "graduationYear"},
			violatedFields(t, err),
		)
	})

	t.Run("rejects email without at sign", func(t *testing.T) {
		params := validParams()
		params.Email = "not-an-email"

		_, err := NewRegistrant(id.NewRegistrantID(), params, now)
		require.Error(t, err)
		assert.Equal(t, []string{"email"}, violatedFields(t, err))
	})

	t.Run("rejects non-positive graduation year", func(t *testing.T) {
		params := validParams()
		params.GraduationYear = 0

		_, err := NewRegistrant(id.NewRegistrantID(), params, now)
		require.Error(t, err)
		assert.Equal(t, []string{"graduationYear"}, violatedFields(t, err))
	})
}

func TestCanPairWith(t *testing.T) {
	now := time.Now()
	newRegistrant := func(email, netID string) *Registrant {
		params := validParams()
		params.Email = email
		params.NetID = netID
		r, err := NewRegistrant(id.NewRegistrantID(), params, now)
		require.NoError(t, err)
		return r
	}

	t.Run("allows two unmatched registrants", func(t *testing.T) {
		a := newRegistrant("a@rice.edu", "a1")
		b := newRegistrant("b@rice.edu", "b1")
		assert.NoError(t, a.CanPairWith(b))
	})

	t.Run("rejects nil candidate", func(t *testing.T) {
		a := newRegistrant("a@rice.edu", "a1")
		err := a.CanPairWith(nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects self pairing", func(t *testing.T) {
		a := newRegistrant("a@rice.edu", "a1")
		err := a.CanPairWith(a)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects when either side is matched", func(t *testing.T) {
		a := newRegistrant("a@rice.edu", "a1")
		b := newRegistrant("b@rice.edu", "b1")
		b.ApplyMatch(id.NewRegistrantID(), now)

		assert.Error(t, a.CanPairWith(b))
		assert.Error(t, b.CanPairWith(a))
	})
}

func TestMatchTransitions(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Minute)

	r, err := NewRegistrant(id.NewRegistrantID(), validParams(), now)
	require.NoError(t, err)

	partner := id.NewRegistrantID()
	r.ApplyMatch(partner, later)
	assert.True(t, r.IsMatched)
	require.NotNil(t, r.MatchedWith)
	assert.Equal(t, partner, *r.MatchedWith)
	assert.Equal(t, later, r.UpdatedAt)

	r.ApplyUnmatch(later.Add(time.Minute))
	assert.False(t, r.IsMatched)
	assert.Nil(t, r.MatchedWith)
}

func TestSummaryExcludesIdentity(t *testing.T) {
	r, err := NewRegistrant(id.NewRegistrantID(), validParams(), time.Now())
	require.NoError(t, err)

	summary := r.Summary()
	assert.Equal(t, r.Name, summary.Name)
	assert.Equal(t, r.Email, summary.Email)
	assert.Equal(t, r.Major, summary.Major)
	assert.Equal(t, r.GraduationYear, summary.GraduationYear)
}

func TestClone(t *testing.T) {
	now := time.Now()
	r, err := NewRegistrant(id.NewRegistrantID(), validParams(), now)
	require.NoError(t, err)
	r.ApplyMatch(id.NewRegistrantID(), now)

	clone := r.Clone()
	clone.ApplyUnmatch(now)

	assert.True(t, r.IsMatched, "mutating the clone must not touch the original")
	require.NotNil(t, r.MatchedWith)
}
