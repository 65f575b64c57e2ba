package lifecycle

import (
	"go-newsroom/internal/apperr"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func ptr(s Status) *Status { return &s }

func TestOnCreate(t *testing.T) {
	st, err := OnCreate("", nil, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, st.Status)
	assert.Nil(t, st.PublishedAt)

	st, err = OnCreate(StatusDraft, nil, t0)
	require.NoError(t, err)
	assert.Nil(t, st.PublishedAt)

	st, err = OnCreate(StatusPublished, nil, t0)
	require.NoError(t, err)
	require.NotNil(t, st.PublishedAt)
	assert.Equal(t, t0, *st.PublishedAt)

	_, err = OnCreate(StatusScheduled, nil, t0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	st, err = OnCreate(StatusScheduled, &t1, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, st.Status)
	assert.Nil(t, st.PublishedAt)

	_, err = OnCreate("live", nil, t0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestOnUpdate_PublishStampsOnce(t *testing.T) {
	draft := State{Status: StatusDraft}

	published, err := OnUpdate(draft, ptr(StatusPublished), nil, t0)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, t0, *published.PublishedAt)

	again, err := OnUpdate(published, ptr(StatusPublished), nil, t1)
	require.NoError(t, err)
	assert.Equal(t, t0, *again.PublishedAt, "re-publishing must not reset the publish time")

	archived, err := OnUpdate(again, ptr(StatusArchived), nil, t1)
	require.NoError(t, err)
	revived, err := OnUpdate(archived, ptr(StatusPublished), nil, t1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, t0, *revived.PublishedAt, "the original publish time survives archiving")
}

func TestOnUpdate_Transitions(t *testing.T) {
	_, err := OnUpdate(State{Status: StatusPublished}, ptr(StatusDraft), nil, t0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = OnUpdate(State{Status: StatusDraft}, ptr(StatusScheduled), nil, t0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "scheduling needs a date")

	st, err := OnUpdate(State{Status: StatusDraft}, ptr(StatusScheduled), &t1, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, st.Status)
	assert.Equal(t, t1, *st.ScheduledFor)

	st, err = OnUpdate(State{Status: StatusDraft}, nil, nil, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, st.Status)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusPublished))
	assert.True(t, CanTransition(StatusScheduled, StatusPublished))
	assert.True(t, CanTransition(StatusPublished, StatusArchived))
	assert.True(t, CanTransition(StatusArchived, StatusArchived))
	assert.False(t, CanTransition(StatusPublished, StatusScheduled))
	assert.False(t, CanTransition(StatusPublished, StatusDraft))
}

func TestPromote(t *testing.T) {
	due := State{Status: StatusScheduled, ScheduledFor: &t0}
	st, ok := Promote(due, t1)
	require.True(t, ok)
	assert.Equal(t, StatusPublished, st.Status)
	assert.Equal(t, t1, *st.PublishedAt)

	notYet := State{Status: StatusScheduled, ScheduledFor: &t1}
	_, ok = Promote(notYet, t0)
	assert.False(t, ok)

	_, ok = Promote(State{Status: StatusDraft, ScheduledFor: &t0}, t1)
	assert.False(t, ok)
}

func TestListFilter(t *testing.T) {
	st, err := ListFilter("draft", false)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, *st, "anonymous callers only see published content")

	st, err = ListFilter("", true)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, *st)

	st, err = ListFilter("draft", true)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, *st)

	st, err = ListFilter("all", true)
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = ListFilter("bogus", true)
	assert.Error(t, err)
}
