package crest

import "context"

// CrestRow is a persisted crest.
type CrestRow struct {
	CrestID int32
	Data    []byte
	Type    int32
}

// Store persists crest images.
type Store interface {
	LoadCrests(ctx context.Context) ([]CrestRow, error)
	SaveCrest(ctx context.Context, row CrestRow) error
	// DeleteCrests removes the given ids and reports how many rows went away.
	DeleteCrests(ctx context.Context, ids []int32) (int64, error)
}
