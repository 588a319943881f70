package fileio

import "github.com/iksnae/deskcorder/internal/session"

// The archive container (.dar) is reserved for a future single-file bundle
// of the directory layout. Both directions fail with ErrReserved.

func saveArchive(path string, _ *session.Log, _ Options) error {
	return &FormatError{Path: path, Op: "archive", Err: ErrReserved}
}

func loadArchive(path string, _ Options) (*session.Log, Version, error) {
	return nil, Version{}, &FormatError{Path: path, Op: "archive", Err: ErrReserved}
}
