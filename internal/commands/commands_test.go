package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tyredash/internal/annotations"
	"tyredash/internal/config"
	"tyredash/internal/models"
)

func named(id, name string) models.Project {
	p := models.Project{ProjectName: name}
	if id != "" {
		p.ID = models.NewProjectID(id)
	}
	return p
}

func TestFindProject(t *testing.T) {
	projects := []models.Project{
		named("1", "Front axle"),
		named("2", "Wet grip"),
		named("", "Draft"),
		named("3", "Dup"),
		named("4", "dup"),
	}

	p, err := findProject(projects, "2")
	require.NoError(t, err)
	assert.Equal(t, "Wet grip", p.ProjectName)

	p, err = findProject(projects, "name:Draft")
	require.NoError(t, err)
	assert.False(t, p.ID.Present())

	p, err = findProject(projects, " front AXLE ")
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID.String())

	_, err = findProject(projects, "missing")
	assert.ErrorIs(t, err, models.ErrProjectNotFound)

	_, err = findProject(projects, "DUP")
	assert.ErrorIs(t, err, models.ErrAmbiguousProject)
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)

	l, err := newLogger(cfg, true)
	require.NoError(t, err)
	l.Info("hello", zap.String("k", "v"))
	_ = l.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "tyredash.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	cfg.Log.Level = "bogus"
	_, err = newLogger(cfg, false)
	assert.Error(t, err)
}

func TestNewApp_RequiresLogin(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Annotations.Backend = "memory"

	a, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.ErrorIs(t, a.requireLogin(), models.ErrNotLoggedIn)

	require.NoError(t, a.tokens.SaveToken("tok"))
	assert.NoError(t, a.requireLogin())
}

func TestNewApp_FileAnnotationsPersist(t *testing.T) {
	cfg := config.Default(t.TempDir())

	a, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	a.service.TogglePin(named("7", "Front axle"))
	a.Close()

	b, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.store.IsPinned(models.IDKey("7")))
	assert.FileExists(t, cfg.AnnotationsPath())
}

func TestPinnedProjects(t *testing.T) {
	store := annotations.NewStore(annotations.NewMemoryBackend())
	projects := []models.Project{
		named("7", "Front axle"),
		named("", "Draft"),
		named("8", "Unpinned"),
	}

	store.TogglePinned(models.IDKey("99"))
	store.TogglePinned(models.NameKey("Draft"))
	store.TogglePinned(models.IDKey("7"))
	opened := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.TouchAt(models.IDKey("7"), opened)

	rows := pinnedProjects(store.Snapshot(), projects)
	require.Len(t, rows, 3)

	assert.Equal(t, models.IDKey("99"), rows[0].Key)
	assert.Nil(t, rows[0].Project)

	require.NotNil(t, rows[1].Project)
	assert.Equal(t, "Draft", rows[1].Project.ProjectName)
	assert.True(t, rows[1].Annotation.LastTouchedAt.IsZero())

	require.NotNil(t, rows[2].Project)
	assert.Equal(t, "Front axle", rows[2].Project.ProjectName)
	assert.True(t, rows[2].Annotation.Pinned)
	assert.True(t, opened.Equal(rows[2].Annotation.LastTouchedAt))
}
