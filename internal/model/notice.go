package model

// MessageID identifies a system message shown to the player.
// Wire encoding is done by the network layer.
type MessageID int32

// System messages emitted by the clan and command channel code.
const (
	MsgNone MessageID = iota
	MsgClanCreated
	MsgClanDispersed
	MsgClanCreateCriteria // level too low or otherwise ineligible
	MsgClanCreateFailed   // already in a clan
	MsgClanCreateCooldown // must wait before creating a new clan
	MsgClanNameInvalid
	MsgClanNameLength
	MsgNameAlreadyExists
	MsgCommandChannelFormed
	MsgJoinedCommandChannel
	MsgCommandChannelDisbanded
	MsgLeftCommandChannel
)

// NoticeKind selects how a Notice is rendered client-side.
type NoticeKind int32

const (
	NoticeSystemMessage NoticeKind = iota
	NoticeOpenChannel
	NoticeCloseChannel
	NoticeChannelPartyUpdate
	NoticeClanStatus
)

// Channel party update modes.
const (
	ChannelPartyLeft   int32 = 0
	ChannelPartyJoined int32 = 1
)

// Notice is an outbound notification for a single player.
type Notice struct {
	Kind    NoticeKind
	Message MessageID
	Args    []string

	// NoticeChannelPartyUpdate: the party that joined or left and the mode.
	PartyID int32
	Mode    int32

	// NoticeClanStatus: the clan whose status changed.
	ClanID int32
}

// SystemMessage builds a NoticeSystemMessage notice.
func SystemMessage(id MessageID, args ...string) Notice {
	return Notice{Kind: NoticeSystemMessage, Message: id, Args: args}
}

// Outbox receives notices addressed to a connected player.
type Outbox interface {
	Deliver(objectID uint32, n Notice)
}
