package hall

import "time"

// FunctionType is a clan hall facility the owner can rent.
type FunctionType int32

const (
	FuncTeleport   FunctionType = 1
	FuncItemCreate FunctionType = 2
	FuncRestoreHP  FunctionType = 3
	FuncRestoreMP  FunctionType = 4
	FuncRestoreExp FunctionType = 5
	FuncSupport    FunctionType = 6
)

// Function is a rented facility of a clan hall.
type Function struct {
	Type    FunctionType
	Level   int32
	Lease   int64
	EndTime time.Time
}

// ActiveAt reports whether the lease still runs at now.
func (f Function) ActiveAt(now time.Time) bool {
	return f.EndTime.After(now)
}
