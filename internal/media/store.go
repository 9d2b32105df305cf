// Package media uploads user media (avatars, cover images) to object storage.
package media

import (
	"context"
	"errors"
)

var ErrNoFile = errors.New("no local file to upload")

type Upload struct {
	URL string
	Key string
}

// Store uploads a local file and returns where it can be fetched from.
// Implementations remove the local file once the upload attempt is over.
type Store interface {
	Upload(ctx context.Context, localPath string) (*Upload, error)
}
