// Package crest keeps clan and alliance crest images.
package crest

import (
	"errors"
	"fmt"
)

// CrestType identifies the kind of crest.
type CrestType int32

const (
	Pledge      CrestType = 1 // 16x12 clan crest
	PledgeLarge CrestType = 2 // 64x32 clan insignia
	Ally        CrestType = 3 // 8x12 alliance crest
)

// Byte limits per crest type.
const (
	MaxPledgeSize      = 256
	MaxPledgeLargeSize = 2176
	MaxAllySize        = 192
)

var (
	ErrDataTooLarge = errors.New("crest data exceeds maximum size")
	ErrInvalidType  = errors.New("invalid crest type")
	ErrEmptyData    = errors.New("crest data is empty")
)

func (t CrestType) String() string {
	switch t {
	case Pledge:
		return "pledge"
	case PledgeLarge:
		return "pledge_large"
	case Ally:
		return "ally"
	default:
		return fmt.Sprintf("crest_type(%d)", int32(t))
	}
}

// Limit returns the byte limit for the type, or 0 for unknown types.
func (t CrestType) Limit() int {
	switch t {
	case Pledge:
		return MaxPledgeSize
	case PledgeLarge:
		return MaxPledgeLargeSize
	case Ally:
		return MaxAllySize
	}
	return 0
}

// Validate checks that data fits a crest of type t.
func Validate(t CrestType, data []byte) error {
	limit := t.Limit()
	switch {
	case limit == 0:
		return fmt.Errorf("%w: %d", ErrInvalidType, int32(t))
	case len(data) == 0:
		return ErrEmptyData
	case len(data) > limit:
		return fmt.Errorf("%s crest: %w (got %d, max %d)", t, ErrDataTooLarge, len(data), limit)
	}
	return nil
}

// Crest is an immutable crest image.
type Crest struct {
	id   int32
	data []byte
	typ  CrestType
}

func (c *Crest) ID() int32       { return c.id }
func (c *Crest) Data() []byte    { return c.data }
func (c *Crest) Type() CrestType { return c.typ }
