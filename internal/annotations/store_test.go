package annotations

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tyredash/internal/models"
)

type failingBackend struct {
	*MemoryBackend
	failWrites bool
	failReads  bool
}

func (f *failingBackend) Get(name string) (string, bool, error) {
	if f.failReads {
		return "", false, errors.New("read denied")
	}
	return f.MemoryBackend.Get(name)
}

func (f *failingBackend) Set(name, value string) error {
	if f.failWrites {
		return errors.New("quota exceeded")
	}
	return f.MemoryBackend.Set(name, value)
}

func TestStore_TogglePinned(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	key := models.IDKey("1")

	assert.False(t, s.IsPinned(key))
	s.TogglePinned(key)
	assert.True(t, s.IsPinned(key))
	s.TogglePinned(key)
	assert.False(t, s.IsPinned(key))
}

func TestStore_PinsKeepOrder(t *testing.T) {
	b := NewMemoryBackend()
	s := NewStore(b)

	s.TogglePinned(models.IDKey("3"))
	s.TogglePinned(models.NameKey("Baseline"))
	s.TogglePinned(models.IDKey("1"))

	raw, ok, err := b.Get(PinnedBlob)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["3","name:Baseline","1"]`, raw)

	assert.Equal(t, []models.ProjectKey{
		models.IDKey("3"), models.NameKey("Baseline"), models.IDKey("1"),
	}, s.Snapshot().Pinned())
}

func TestStore_TouchOverwritesWithoutMax(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	key := models.IDKey("7")
	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	assert.Equal(t, int64(0), s.LastTouchedMillis(key))

	s.TouchAt(key, t1)
	assert.Equal(t, t1.UnixMilli(), s.LastTouchedMillis(key))

	s.TouchAt(key, t2)
	assert.Equal(t, t2.UnixMilli(), s.LastTouchedMillis(key))

	// An older instant still replaces the newer one.
	s.TouchAt(key, t1)
	assert.Equal(t, t1.UnixMilli(), s.LastTouchedMillis(key))
}

func TestStore_TouchUsesClock(t *testing.T) {
	now := time.Date(2024, 9, 9, 9, 9, 9, 0, time.UTC)
	s := NewStore(NewMemoryBackend(), WithClock(func() time.Time { return now }))

	s.Touch(models.NameKey("Winter"))
	assert.Equal(t, now.UnixMilli(), s.LastTouchedMillis(models.NameKey("Winter")))
	assert.Equal(t, now.UnixMilli(), s.Record(models.NameKey("Winter")).LastTouchedAt.UnixMilli())
}

func TestStore_TouchIgnoresEmptyKey(t *testing.T) {
	b := NewMemoryBackend()
	s := NewStore(b)

	s.Touch(models.DeriveKey(models.Project{}))

	_, ok, err := b.Get(TouchesBlob)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_MalformedStateReadsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		pins    string
		touches string
	}{
		{"garbage", "{not json", "also garbage"},
		{"wrong shapes", `{"a":1}`, `[1,2,3]`},
		{"null", "null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewMemoryBackend()
			require.NoError(t, b.Set(PinnedBlob, tt.pins))
			require.NoError(t, b.Set(TouchesBlob, tt.touches))
			s := NewStore(b)

			assert.False(t, s.IsPinned(models.IDKey("a")))
			assert.Equal(t, int64(0), s.LastTouchedMillis(models.IDKey("a")))

			// Mutations recover by starting from empty state.
			s.TogglePinned(models.IDKey("a"))
			assert.True(t, s.IsPinned(models.IDKey("a")))
		})
	}
}

func TestStore_IgnoresNonNumericTouches(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Set(TouchesBlob, `{"1": "yesterday", "2": 1700000000000, "3": 1.5e12}`))
	require.NoError(t, b.Set(PinnedBlob, `["1", 2, null]`))
	s := NewStore(b)

	assert.Equal(t, int64(0), s.LastTouchedMillis(models.IDKey("1")))
	assert.Equal(t, int64(1700000000000), s.LastTouchedMillis(models.IDKey("2")))
	assert.Equal(t, int64(1500000000000), s.LastTouchedMillis(models.IDKey("3")))
	assert.True(t, s.IsPinned(models.IDKey("1")))
	assert.False(t, s.IsPinned(models.IDKey("2")))
}

func TestStore_WriteFailuresAreSwallowed(t *testing.T) {
	b := &failingBackend{MemoryBackend: NewMemoryBackend(), failWrites: true}
	s := NewStore(b)
	key := models.IDKey("1")

	require.NotPanics(t, func() {
		s.TogglePinned(key)
		s.Touch(key)
	})
	assert.False(t, s.IsPinned(key))
	assert.Equal(t, int64(0), s.LastTouchedMillis(key))
}

func TestStore_ReadFailuresReadEmpty(t *testing.T) {
	b := &failingBackend{MemoryBackend: NewMemoryBackend(), failReads: true}
	s := NewStore(b)

	assert.False(t, s.IsPinned(models.IDKey("1")))
	assert.Equal(t, int64(0), s.LastTouchedMillis(models.IDKey("1")))
}

func TestStore_NilBackend(t *testing.T) {
	s := NewStore(nil)
	s.TogglePinned(models.IDKey("1"))
	assert.False(t, s.IsPinned(models.IDKey("1")))
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	key := models.IDKey("1")

	snap := s.Snapshot()
	s.TogglePinned(key)

	assert.False(t, snap.IsPinned(key))
	assert.True(t, s.Snapshot().IsPinned(key))
}

func TestStore_FileBackendSharedAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")
	b1, err := NewFileBackend(path)
	require.NoError(t, err)
	b2, err := NewFileBackend(path)
	require.NoError(t, err)

	first := NewStore(b1)
	second := NewStore(b2)

	first.TogglePinned(models.IDKey("42"))
	assert.True(t, second.IsPinned(models.IDKey("42")))

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second.TouchAt(models.IDKey("42"), at)
	assert.Equal(t, at.UnixMilli(), first.LastTouchedMillis(models.IDKey("42")))
	assert.True(t, first.IsPinned(models.IDKey("42")))
}
