package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_DecodeIDForms(t *testing.T) {
	payload := `[
		{"id": 12, "project_name": "Numeric"},
		{"id": "p-7", "project_name": "Stringy"},
		{"id": null, "project_name": "Nulled"},
		{"project_name": "Missing"}
	]`

	var projects []Project
	require.NoError(t, json.Unmarshal([]byte(payload), &projects))
	require.Len(t, projects, 4)

	assert.True(t, projects[0].ID.Present())
	assert.Equal(t, "12", projects[0].ID.String())
	assert.True(t, projects[1].ID.Present())
	assert.Equal(t, "p-7", projects[1].ID.String())
	assert.False(t, projects[2].ID.Present())
	assert.False(t, projects[3].ID.Present())
}

func TestProject_IDRoundTripKeepsNumbers(t *testing.T) {
	var p Project
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "project_name": "A"}`), &p))

	out, err := json.Marshal(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", string(out))

	out, err = json.Marshal(ProjectID{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestProject_TimestampsKeepRawForm(t *testing.T) {
	var p Project
	err := json.Unmarshal([]byte(`{
		"id": 1,
		"created_at": "2024-01-01 10:00:00",
		"updated_at": 1717228800000,
		"completed_at": null
	}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01 10:00:00", p.CreatedAt.Raw())
	assert.Equal(t, json.Number("1717228800000"), p.UpdatedAt.Raw())
	assert.True(t, p.CompletedAt.IsZero())
}

func TestDeriveKey(t *testing.T) {
	withID := Project{ID: NewProjectID("9"), ProjectName: "Ignored"}
	assert.Equal(t, "9", DeriveKey(withID).String())
	assert.False(t, DeriveKey(withID).IsNameFallback())

	named := Project{ProjectName: "Winter set"}
	key := DeriveKey(named)
	assert.Equal(t, "name:Winter set", key.String())
	assert.True(t, key.IsNameFallback())
	assert.False(t, key.IsEmpty())

	assert.True(t, DeriveKey(Project{}).IsEmpty())
	assert.Equal(t, "name:", DeriveKey(Project{}).String())
}

func TestDeriveKey_NameCollision(t *testing.T) {
	a := Project{ProjectName: "Baseline", Protocol: "MF62"}
	b := Project{ProjectName: "Baseline", Protocol: "FTIRE"}

	// Distinct projects without ids share one annotation key.
	assert.Equal(t, DeriveKey(a), DeriveKey(b))
	assert.True(t, DeriveKey(a).IsNameFallback())
}

func TestParseProjectKey(t *testing.T) {
	for _, k := range []ProjectKey{IDKey("5"), NameKey("Spring"), NameKey("")} {
		assert.Equal(t, k, ParseProjectKey(k.String()))
	}
}

func TestProject_DisplayName(t *testing.T) {
	assert.Equal(t, "Named", Project{ProjectName: "Named"}.DisplayName())
	assert.Equal(t, "3", Project{ID: NewProjectID("3")}.DisplayName())
	assert.Equal(t, "Untitled", Project{}.DisplayName())
}

func TestUser_DecodeAliases(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{
		"id": 3,
		"email": "eng@apollo.test",
		"full_name": "Asha Rao",
		"createdAt": "2023-05-01T08:00:00Z",
		"lastLoginAt": "2024-06-01 09:15:00"
	}`), &u)
	require.NoError(t, err)

	assert.Equal(t, "3", u.ID)
	assert.Equal(t, "Asha Rao", u.FullName)
	assert.Equal(t, "2023-05-01T08:00:00Z", u.CreatedAt.Raw())
	assert.Equal(t, "2024-06-01 09:15:00", u.LastLogin.Raw())
	assert.True(t, u.HasIdentity())
}

func TestActivity_LabelAndWhen(t *testing.T) {
	a := Activity{Type: "simulation", CreatedAt: NewTimestamp("2024-01-01 10:00:00")}
	assert.Equal(t, "simulation", a.Label())
	assert.Equal(t, "2024-01-01 10:00:00", a.When().Raw())

	assert.Equal(t, "Activity", Activity{}.Label())
}
