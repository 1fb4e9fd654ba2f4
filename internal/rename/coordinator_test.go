package rename

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tyredash/internal/annotations"
	"tyredash/internal/api"
	"tyredash/internal/models"
)

type mockUpdater struct {
	mock.Mock
}

func (m *mockUpdater) UpdateProjectName(ctx context.Context, method, projectID, name string) (*api.RenameResponse, error) {
	args := m.Called(ctx, method, projectID, name)
	resp, _ := args.Get(0).(*api.RenameResponse)
	return resp, args.Error(1)
}

type recordingToucher struct {
	mu      sync.Mutex
	touched []models.ProjectKey
}

func (r *recordingToucher) Touch(key models.ProjectKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched = append(r.touched, key)
}

func success() *api.RenameResponse {
	b := true
	return &api.RenameResponse{Success: &b}
}

func failure(msg string) *api.RenameResponse {
	b := false
	return &api.RenameResponse{Success: &b, Message: msg}
}

func rejected(method string) error {
	return &api.StatusError{Method: method, Path: "/api/projects/42/name", StatusCode: http.StatusMethodNotAllowed}
}

func project() *models.Project {
	return &models.Project{ID: models.NewProjectID("42"), ProjectName: "Front axle"}
}

func TestRename_NoOpWithoutNetwork(t *testing.T) {
	for _, name := range []string{"", "   ", "Front axle", "  Front axle  "} {
		u := &mockUpdater{}
		touch := &recordingToucher{}
		p := project()

		applied, err := New(u, touch).Rename(context.Background(), p, name)
		require.NoError(t, err)
		assert.False(t, applied, "%q", name)
		assert.Equal(t, "Front axle", p.ProjectName)
		assert.Empty(t, touch.touched)
		u.AssertNotCalled(t, "UpdateProjectName", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestRename_MissingID(t *testing.T) {
	u := &mockUpdater{}
	p := &models.Project{ProjectName: "Draft"}

	applied, err := New(u, nil).Rename(context.Background(), p, "Final")
	assert.False(t, applied)
	assert.ErrorIs(t, err, ErrMissingID)
	u.AssertNotCalled(t, "UpdateProjectName", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRename_PatchSucceeds(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateProjectName", mock.Anything, http.MethodPatch, "42", "Rear axle").Return(success(), nil).Once()
	touch := &recordingToucher{}
	p := project()

	applied, err := New(u, touch).Rename(context.Background(), p, "  Rear axle ")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "Rear axle", p.ProjectName)
	assert.Equal(t, []models.ProjectKey{models.IDKey("42")}, touch.touched)
	u.AssertExpectations(t)
	u.AssertNumberOfCalls(t, "UpdateProjectName", 1)
}

func TestRename_FallsBackToPutExactlyOnce(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateProjectName", mock.Anything, http.MethodPatch, "42", "Rear axle").Return(nil, rejected(http.MethodPatch)).Once()
	u.On("UpdateProjectName", mock.Anything, http.MethodPut, "42", "Rear axle").Return(success(), nil).Once()
	p := project()

	applied, err := New(u, &recordingToucher{}).Rename(context.Background(), p, "Rear axle")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "Rear axle", p.ProjectName)
	u.AssertExpectations(t)
}

func TestRename_BothMethodsRejected(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateProjectName", mock.Anything, http.MethodPatch, "42", "Rear axle").Return(nil, rejected(http.MethodPatch)).Once()
	u.On("UpdateProjectName", mock.Anything, http.MethodPut, "42", "Rear axle").Return(nil, rejected(http.MethodPut)).Once()
	touch := &recordingToucher{}
	p := project()

	applied, err := New(u, touch).Rename(context.Background(), p, "Rear axle")
	assert.False(t, applied)
	require.Error(t, err)
	assert.True(t, api.IsStatus(err))
	assert.Equal(t, "Front axle", p.ProjectName)
	assert.Empty(t, touch.touched)
	u.AssertNumberOfCalls(t, "UpdateProjectName", 2)
}

func TestRename_TransportErrorDoesNotFallBack(t *testing.T) {
	u := &mockUpdater{}
	boom := errors.New("connection refused")
	u.On("UpdateProjectName", mock.Anything, http.MethodPatch, "42", "Rear axle").Return(nil, boom).Once()
	p := project()

	applied, err := New(u, &recordingToucher{}).Rename(context.Background(), p, "Rear axle")
	assert.False(t, applied)
	assert.ErrorIs(t, err, boom)
	u.AssertNumberOfCalls(t, "UpdateProjectName", 1)
}

func TestRename_ExplicitFailureBody(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateProjectName", mock.Anything, http.MethodPatch, "42", "Rear axle").Return(failure("name taken"), nil).Once()
	p := project()

	applied, err := New(u, &recordingToucher{}).Rename(context.Background(), p, "Rear axle")
	assert.False(t, applied)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "name taken")
	assert.Equal(t, "Front axle", p.ProjectName)
	u.AssertNumberOfCalls(t, "UpdateProjectName", 1)
}

func TestRename_TouchReachesStore(t *testing.T) {
	u := &mockUpdater{}
	u.On("UpdateProjectName", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(success(), nil)
	store := annotations.NewStore(annotations.NewMemoryBackend())

	applied, err := New(u, store).Rename(context.Background(), project(), "Rear axle")
	require.NoError(t, err)
	require.True(t, applied)
	assert.NotZero(t, store.LastTouchedMillis(models.IDKey("42")))
}
