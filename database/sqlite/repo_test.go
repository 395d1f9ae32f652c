package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"statichost"
	"statichost/database/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo migrates a fresh in-memory database and returns its repo.
func setupTestRepo(t *testing.T) statichost.SiteRepo {
	t.Helper()
	ctx := context.Background()

	tables := statichost.Tables{
		Sites: fmt.Sprintf("sites_%s", getRandomString(t)),
		Files: fmt.Sprintf("files_%s", getRandomString(t)),
	}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	assert.NoError(t, err, "connect sqlite")
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, db.Migrate(ctx), "migrate")
	assert.NoError(t, db.Validate(ctx), "validate schema")

	return db.Repo()
}

func newSite(host string) statichost.Site {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return statichost.Site{
		ID:        uuid.Must(uuid.NewV7()),
		Host:      host,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newFile(siteID uuid.UUID, name string, isIndex bool) statichost.File {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return statichost.File{
		ID:        uuid.Must(uuid.NewV7()),
		SiteID:    siteID,
		Name:      name,
		Path:      statichost.SiteKeyPrefix(siteID) + name,
		MimeType:  "text/html",
		Size:      42,
		IsIndex:   isIndex,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepo_InsertAndGetSite(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	site := newSite("blog.example.dev")
	site.IndexFile = "home.html"
	assert.NoError(t, repo.InsertSite(ctx, site))

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetSiteByID(ctx, site.ID)
		assert.NoError(t, err)
		assert.Equal(t, site.ID, got.ID)
		assert.Equal(t, "blog.example.dev", got.Host)
		assert.Equal(t, "home.html", got.IndexFile)
		assert.True(t, got.CreatedAt.Equal(site.CreatedAt))
	})

	t.Run("by host", func(t *testing.T) {
		got, err := repo.GetSiteByHost(ctx, "blog.example.dev")
		assert.NoError(t, err)
		assert.Equal(t, site.ID, got.ID)
	})

	t.Run("missing site", func(t *testing.T) {
		_, err := repo.GetSiteByID(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, statichost.ErrNotFound)

		_, err = repo.GetSiteByHost(ctx, "nope.example.dev")
		assert.ErrorIs(t, err, statichost.ErrNotFound)
	})

	t.Run("duplicate host conflicts", func(t *testing.T) {
		err := repo.InsertSite(ctx, newSite("blog.example.dev"))
		assert.ErrorIs(t, err, statichost.ErrConflict)
	})

	t.Run("empty index file round trips", func(t *testing.T) {
		plain := newSite("plain.example.dev")
		assert.NoError(t, repo.InsertSite(ctx, plain))

		got, err := repo.GetSiteByID(ctx, plain.ID)
		assert.NoError(t, err)
		assert.Empty(t, got.IndexFile)
	})
}

func TestRepo_UpdateSiteIndex(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	site := newSite("blog.example.dev")
	assert.NoError(t, repo.InsertSite(ctx, site))

	assert.NoError(t, repo.UpdateSiteIndex(ctx, site.ID, "main.html"))

	got, err := repo.GetSiteByID(ctx, site.ID)
	assert.NoError(t, err)
	assert.Equal(t, "main.html", got.IndexFile)
	assert.True(t, got.UpdatedAt.After(site.UpdatedAt) || got.UpdatedAt.Equal(site.UpdatedAt))

	t.Run("missing site", func(t *testing.T) {
		err := repo.UpdateSiteIndex(ctx, uuid.Must(uuid.NewV7()), "x.html")
		assert.ErrorIs(t, err, statichost.ErrNotFound)
	})
}

func TestRepo_DeleteSite(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	site := newSite("blog.example.dev")
	assert.NoError(t, repo.InsertSite(ctx, site))
	assert.NoError(t, repo.DeleteSite(ctx, site.ID))

	_, err := repo.GetSiteByID(ctx, site.ID)
	assert.ErrorIs(t, err, statichost.ErrNotFound)

	t.Run("missing site", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteSite(ctx, site.ID), statichost.ErrNotFound)
	})
}

func TestRepo_ListSites(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := range 5 {
		site := newSite(fmt.Sprintf("site-%d.example.dev", i))
		site.CreatedAt = base.Add(time.Duration(i) * time.Second)
		site.UpdatedAt = site.CreatedAt
		assert.NoError(t, repo.InsertSite(ctx, site))
	}

	t.Run("first page", func(t *testing.T) {
		page, err := repo.ListSites(ctx, statichost.ListQuery{Limit: 3})
		assert.NoError(t, err)
		assert.Len(t, page.Sites, 3)
		assert.NotEmpty(t, page.NextCursor)
		assert.Equal(t, "site-0.example.dev", page.Sites[0].Host)
	})

	t.Run("keyset pagination walks every site once", func(t *testing.T) {
		var hosts []string
		cursor := ""
		for {
			page, err := repo.ListSites(ctx, statichost.ListQuery{Limit: 2, Cursor: cursor})
			assert.NoError(t, err)
			for _, s := range page.Sites {
				hosts = append(hosts, s.Host)
			}
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
		}
		assert.Len(t, hosts, 5)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		_, err := repo.ListSites(ctx, statichost.ListQuery{Limit: 2, Cursor: "garbage!!!"})
		assert.Error(t, err)
	})
}

func TestRepo_Files(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	site := newSite("blog.example.dev")
	assert.NoError(t, repo.InsertSite(ctx, site))

	index := newFile(site.ID, "index.html", true)
	css := newFile(site.ID, "css/style.css", false)
	assert.NoError(t, repo.InsertFiles(ctx, []statichost.File{index, css}))

	t.Run("list by site", func(t *testing.T) {
		files, err := repo.ListFilesBySite(ctx, site.ID)
		assert.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("get by path filters on index flag", func(t *testing.T) {
		got, err := repo.GetFileByPath(ctx, site.ID, index.Path, true)
		assert.NoError(t, err)
		assert.Equal(t, index.ID, got.ID)
		assert.True(t, got.IsIndex)

		_, err = repo.GetFileByPath(ctx, site.ID, index.Path, false)
		assert.ErrorIs(t, err, statichost.ErrNotFound)

		got, err = repo.GetFileByPath(ctx, site.ID, css.Path, false)
		assert.NoError(t, err)
		assert.Equal(t, "text/html", got.MimeType)
	})

	t.Run("empty insert is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.InsertFiles(ctx, nil))
	})

	t.Run("delete by site", func(t *testing.T) {
		assert.NoError(t, repo.DeleteFilesBySite(ctx, site.ID))

		files, err := repo.ListFilesBySite(ctx, site.ID)
		assert.NoError(t, err)
		assert.Empty(t, files)

		// deleting again is not an error
		assert.NoError(t, repo.DeleteFilesBySite(ctx, site.ID))
	})
}
