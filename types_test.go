package statichost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"statichost"
)

func TestSite_Index(t *testing.T) {
	t.Run("declared index file", func(t *testing.T) {
		s := statichost.Site{IndexFile: "home.html"}
		assert.Equal(t, "home.html", s.Index())
	})

	t.Run("defaults to index.html", func(t *testing.T) {
		s := statichost.Site{}
		assert.Equal(t, "index.html", s.Index())
	})
}

func TestParseSiteType(t *testing.T) {
	t.Run("valid types", func(t *testing.T) {
		for _, tag := range []string{"html", "zip"} {
			siteType, err := statichost.ParseSiteType(tag)
			assert.NoError(t, err)
			assert.True(t, siteType.IsValid())
		}
	})

	t.Run("invalid types", func(t *testing.T) {
		for _, tag := range []string{"", "HTML", "archive", "tar"} {
			_, err := statichost.ParseSiteType(tag)
			assert.ErrorIs(t, err, statichost.ErrInvalidInput, tag)
		}
	})
}

func TestTables_Validate(t *testing.T) {
	t.Run("valid names", func(t *testing.T) {
		tables := statichost.Tables{Sites: "sites", Files: "files"}
		assert.NoError(t, tables.Validate())

		tables = statichost.Tables{Sites: "tenant_a_sites", Files: "tenant_a_files"}
		assert.NoError(t, tables.Validate())
	})

	t.Run("empty names", func(t *testing.T) {
		assert.Error(t, statichost.Tables{Sites: "sites"}.Validate())
		assert.Error(t, statichost.Tables{Files: "files"}.Validate())
	})

	t.Run("invalid characters", func(t *testing.T) {
		assert.Error(t, statichost.Tables{Sites: "Sites", Files: "files"}.Validate())
		assert.Error(t, statichost.Tables{Sites: "sites;drop", Files: "files"}.Validate())
		assert.Error(t, statichost.Tables{Sites: "1sites", Files: "files"}.Validate())
	})

	t.Run("names must differ", func(t *testing.T) {
		assert.Error(t, statichost.Tables{Sites: "data", Files: "data"}.Validate())
	})
}

func TestIsValidTableName(t *testing.T) {
	assert.True(t, statichost.IsValidTableName("sites"))
	assert.True(t, statichost.IsValidTableName("_private"))
	assert.False(t, statichost.IsValidTableName(""))
	assert.False(t, statichost.IsValidTableName("sites-2"))

	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, statichost.IsValidTableName(string(long)))
}
