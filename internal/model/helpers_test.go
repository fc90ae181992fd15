package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingOutbox collects delivered notices per player.
type recordingOutbox struct {
	mu      sync.Mutex
	notices map[uint32][]Notice
}

func newRecordingOutbox() *recordingOutbox {
	return &recordingOutbox{notices: make(map[uint32][]Notice)}
}

func (o *recordingOutbox) Deliver(objectID uint32, n Notice) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices[objectID] = append(o.notices[objectID], n)
}

func (o *recordingOutbox) For(objectID uint32) []Notice {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Notice, len(o.notices[objectID]))
	copy(out, o.notices[objectID])
	return out
}

func (o *recordingOutbox) Has(objectID uint32, kind NoticeKind, msg MessageID) bool {
	for _, n := range o.For(objectID) {
		if n.Kind == kind && n.Message == msg {
			return true
		}
	}
	return false
}

func newTestPartyPlayer(t *testing.T, objectID uint32, name string) *Player {
	t.Helper()
	return newTestLeveledPlayer(t, objectID, name, 20)
}

func newTestLeveledPlayer(t *testing.T, objectID uint32, name string, level int32) *Player {
	t.Helper()
	p, err := NewPlayer(objectID, name, level)
	require.NoError(t, err, "NewPlayer(%d, %s)", objectID, name)
	return p
}
