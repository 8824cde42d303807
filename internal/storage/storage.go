// Package storage keeps uploaded post images somewhere they can be served from.
//
// Two backends implement ImageStore:
//   - Local writes into a directory that the server exposes under MEDIA_URL.
//   - S3 writes into an S3-compatible bucket (AWS, Cloudflare R2, MinIO) and
//     links to the bucket's public URL.
//
// Both store an upload called "cat.gif" under the key "posts/cat.gif". The
// key is what the posts table remembers. If that key is already taken, the
// new file gets a short random suffix instead of replacing someone else's
// image: "posts/cat_1a2b3c4d.gif".
package storage

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Prefix is the folder every post image lives under.
const Prefix = "posts/"

// ImageStore saves image bytes and turns stored keys back into URLs.
type ImageStore interface {
	// Save stores data under a key derived from name and returns that key.
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	// Delete removes a stored image. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL is the public address of a stored key.
	URL(key string) string
}

// keyFor turns an uploaded file name into a storage key.
//
// Browsers send whatever the user's file was called, including paths on
// some platforms ("C:\Users\me\cat.gif"). Only the base name is kept, and
// anything outside a conservative character set becomes "_".
func keyFor(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	clean := strings.TrimLeft(b.String(), ".")
	if clean == "" {
		clean = "image"
	}
	return Prefix + clean
}

// alternateKey inserts a short random suffix before the extension.
func alternateKey(key string) string {
	ext := path.Ext(key)
	stem := strings.TrimSuffix(key, ext)
	return stem + "_" + uuid.NewString()[:8] + ext
}
