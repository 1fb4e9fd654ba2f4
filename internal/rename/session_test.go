package rename

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tyredash/internal/models"
)

func TestSession_Transitions(t *testing.T) {
	s := NewSession(*project())
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, "Front axle", s.Original)
	assert.Equal(t, models.IDKey("42"), s.Key)

	v, ok := s.Submit("Rear axle")
	require.True(t, ok)
	assert.Equal(t, "Rear axle", v)
	assert.Equal(t, Committing, s.State())

	// Focus loss after the confirm key must not resubmit or cancel.
	_, ok = s.Submit("Rear axle")
	assert.False(t, ok)
	assert.False(t, s.Cancel())

	assert.True(t, s.Finish(true))
	assert.Equal(t, Committed, s.State())
	assert.False(t, s.Finish(false))
	assert.Equal(t, Committed, s.State())
	assert.True(t, s.State().Terminal())
}

func TestSession_CancelFirst(t *testing.T) {
	s := NewSession(*project())
	require.True(t, s.Cancel())
	assert.Equal(t, RolledBack, s.State())

	_, ok := s.Submit("Rear axle")
	assert.False(t, ok)
	assert.False(t, s.Finish(true))
	assert.Equal(t, RolledBack, s.State())
}

func TestSession_FinishRequiresCommitting(t *testing.T) {
	s := NewSession(*project())
	assert.False(t, s.Finish(true))
	assert.Equal(t, Editing, s.State())
}

func TestSession_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, NewSession(*project()).ID, NewSession(*project()).ID)
}

func TestSession_ConcurrentCompletionsApplyOnce(t *testing.T) {
	s := NewSession(*project())

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if _, ok := s.Submit("Rear axle"); ok {
					accepted.Add(1)
				}
			} else if s.Cancel() {
				accepted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Contains(t, []State{Committing, RolledBack}, s.State())
}

func TestSession_RunCommits(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateProjectName", mock.Anything, http.MethodPatch, "42", "Rear axle").Return(success(), nil).Once()
	c := New(u, &recordingToucher{})
	p := project()
	s := NewSession(*p)

	res, ok := s.Run(context.Background(), c, p, "Rear axle")
	require.True(t, ok)
	assert.True(t, res.Applied())
	assert.Equal(t, "Rear axle", res.Name)
	assert.Equal(t, s.ID, res.SessionID)
	assert.NoError(t, res.Err)

	// A second completion for the same session sends nothing.
	_, ok = s.Run(context.Background(), c, p, "Other")
	assert.False(t, ok)
	u.AssertNumberOfCalls(t, "UpdateProjectName", 1)
}

func TestSession_RunRollsBack(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateProjectName", mock.Anything, mock.Anything, "42", "Rear axle").Return(nil, rejected(http.MethodPatch))
	p := project()
	s := NewSession(*p)

	res, ok := s.Run(context.Background(), New(u, nil), p, "Rear axle")
	require.True(t, ok)
	assert.False(t, res.Applied())
	assert.Equal(t, RolledBack, res.State)
	assert.Equal(t, "Front axle", res.Name)
	assert.Error(t, res.Err)
	assert.Equal(t, "Front axle", p.ProjectName)
}

func TestSession_RunNoOpRollsBackWithoutError(t *testing.T) {
	u := &mockUpdater{}
	p := project()
	s := NewSession(*p)

	res, ok := s.Run(context.Background(), New(u, nil), p, "")
	require.True(t, ok)
	assert.Equal(t, RolledBack, res.State)
	assert.NoError(t, res.Err)
	assert.Equal(t, "Front axle", res.Name)
	u.AssertNotCalled(t, "UpdateProjectName", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
