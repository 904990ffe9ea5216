package storage

import "io"

type UsageStats struct {
	TotalBytes uint64
	FreeBytes  uint64
}

type Storage interface {
	Read(path string) (io.ReadCloser, error)

	Write(path string, data io.Reader) error

	Delete(path string) error

	Exists(path string) (bool, error)

	// Location is the absolute base path backing this storage, used to
	// build static file serving roots.
	Location() string

	Usage() (UsageStats, error)
}
