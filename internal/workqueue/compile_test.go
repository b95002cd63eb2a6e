package workqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

func TestCompile_StatusIn(t *testing.T) {
	c := &Compiler{}

	sql, params, err := c.Compile(StatusIn{Statuses: []record.Status{
		record.StatusInProgress, record.StatusNotified,
	}})
	require.NoError(t, err)

	assert.Equal(t, "rs.status IN (?, ?)", sql)
	assert.Equal(t, []any{"IN_PROGRESS", "NOTIFIED"}, params)
}

func TestCompile_FlagPredicatesAreParameterized(t *testing.T) {
	c := &Compiler{}

	sql, params, err := c.Compile(HasFlag{Flag: record.FlagPotentialDuplicate})
	require.NoError(t, err)
	assert.Equal(t, "instr(rs.flags, ?) > 0", sql)
	assert.Equal(t, []any{`"POTENTIAL_DUPLICATE"`}, params)
	// Value NOT interpolated into the SQL
	assert.NotContains(t, sql, "POTENTIAL_DUPLICATE")

	sql, params, err = c.Compile(NotFlag{Flag: record.FlagCorrectionRequested})
	require.NoError(t, err)
	assert.Equal(t, "instr(rs.flags, ?) = 0", sql)
	assert.Equal(t, []any{`"CORRECTION_REQUESTED"`}, params)
}

func TestCompile_AssignedToActorRequiresBinding(t *testing.T) {
	c := &Compiler{}
	_, _, err := c.Compile(AssignedToActor{})
	require.Error(t, err)

	c.ActorID = "registrar-1"
	sql, params, err := c.Compile(AssignedToActor{})
	require.NoError(t, err)
	assert.Equal(t, "rs.assignee = ?", sql)
	assert.Equal(t, []any{"registrar-1"}, params)
}

func TestCompile_And(t *testing.T) {
	c := &Compiler{}

	sql, params, err := c.Compile(And{Predicates: []Predicate{
		StatusIn{Statuses: []record.Status{record.StatusDeclared}},
		NotFlag{Flag: record.FlagPotentialDuplicate},
	}})
	require.NoError(t, err)

	assert.Equal(t, "(rs.status IN (?)) AND (instr(rs.flags, ?) = 0)", sql)
	assert.Len(t, params, 2)
}

func TestCompile_RejectsEmptyComposites(t *testing.T) {
	c := &Compiler{}

	_, _, err := c.Compile(And{})
	assert.Error(t, err)

	_, _, err = c.Compile(StatusIn{})
	assert.Error(t, err)

	_, _, err = c.Compile(nil)
	assert.Error(t, err)
}

func TestAllQueueFiltersCompile(t *testing.T) {
	c := &Compiler{ActorID: "registrar-1"}
	for _, q := range Queues {
		_, _, err := c.Compile(q.Filter)
		assert.NoError(t, err, "queue %s", q.Slug)
	}
}

func TestBySlug(t *testing.T) {
	q, ok := BySlug("ready-for-review")
	require.True(t, ok)
	assert.Equal(t, "Ready for review", q.Title)

	_, ok = BySlug("no-such-queue")
	assert.False(t, ok)
}

func TestNoQueueMatchesArchivedOrRevoked(t *testing.T) {
	// Structural check: no queue filter lists a closed status.
	closed := map[record.Status]bool{
		record.StatusArchived: true,
		record.StatusRevoked:  true,
	}
	var check func(p Predicate) bool
	check = func(p Predicate) bool {
		switch pred := p.(type) {
		case StatusIn:
			for _, s := range pred.Statuses {
				if closed[s] {
					return false
				}
			}
		case And:
			for _, child := range pred.Predicates {
				if !check(child) {
					return false
				}
			}
		}
		return true
	}
	for _, q := range Queues {
		if q.ActorRelative {
			continue
		}
		assert.True(t, check(q.Filter), "queue %s lists a closed status", q.Slug)
	}
}
