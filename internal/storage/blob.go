package storage

import "io"

// BlobStore holds generated package archives. Keys are run-scoped artifact
// names ("artifacts/<id>.zip").
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
