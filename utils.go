package statichost

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cursor represents pagination cursor data for site listings.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(createdAt time.Time, id uuid.UUID) string {
	data := createdAt.Format(time.RFC3339Nano) + "|" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid id: %w", err)
	}

	return Cursor{CreatedAt: createdAt, ID: id}, nil
}

// JoinHost builds the unique host for a site from its domain and suffix, e.g.
// "blog" + ".example.dev" -> "blog.example.dev".
func JoinHost(domain, suffix string) string {
	return domain + suffix
}

// SiteKeyPrefix returns the object store key prefix under which a site's
// files live. Includes the trailing slash.
func SiteKeyPrefix(id uuid.UUID) string {
	return fmt.Sprintf("sites/%s/", id)
}

// RoutingToken encodes the routing cache value for a site: the site id plus a
// cache-busting marker so the edge re-fetches after every publish.
func RoutingToken(id uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s=x=%d", id, now.Unix())
}

// SplitHostPath splits a raw serve path of the form "{host}/{subpath}" on the
// first separator. The subpath may be empty.
func SplitHostPath(raw string) (host, subpath string) {
	raw = strings.TrimPrefix(raw, "/")
	host, subpath, _ = strings.Cut(raw, "/")
	return host, subpath
}
