package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Len(t, c.Colleges(), 46)
	assert.Equal(t, "Atlantic Cape Community College", c.Colleges()[0])
	assert.Contains(t, c.FieldsOfStudy(), "Undecided")
	assert.True(t, c.HasCollege("Rutgers University Newark"))
	assert.True(t, c.HasCollege("  Kean University "))
	assert.False(t, c.HasCollege("Harvard University"))
	assert.True(t, c.HasFieldOfStudy("Pre-Med"))
	assert.False(t, c.HasFieldOfStudy("Alchemy"))
}

func TestColleges_ReturnsCopy(t *testing.T) {
	c := Default()

	list := c.Colleges()
	list[0] = "changed"

	assert.Equal(t, "Atlantic Cape Community College", c.Colleges()[0])
}

func TestParse_DropsBlankAndDuplicates(t *testing.T) {
	c, err := Parse([]byte(`
colleges: ["A", " ", "B", "A"]
fields_of_study: ["X"]
`))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, c.Colleges())
	assert.Equal(t, []string{"X"}, c.FieldsOfStudy())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "colleges: [unterminated"},
		{"no colleges", "fields_of_study: [X]"},
		{"no fields", "colleges: [A]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses embedded catalog", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		assert.True(t, c.HasCollege("Princeton University"))
	})

	t.Run("override file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("colleges: [Local College]\nfields_of_study: [Art]\n"), 0o600))

		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Local College"}, c.Colleges())
		assert.False(t, c.HasCollege("Princeton University"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
