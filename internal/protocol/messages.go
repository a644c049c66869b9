// Package protocol defines the messages exchanged between game clients and
// the server, their MessagePack record encoding and the byte-stuffed framing
// used to carry records over a stream.
package protocol

import "github.com/google/uuid"

// ClientTag identifies a client→server message variant on the wire.
type ClientTag uint8

const (
	TagAnswerPassword ClientTag = 0
	TagGetOpponents   ClientTag = 1
	TagRequestMatch   ClientTag = 2
	TagGuessAttempt   ClientTag = 3
	TagSendHint       ClientTag = 4
	TagGiveUp         ClientTag = 5
	TagLeaveGame      ClientTag = 6
)

// ServerTag identifies a server→client message variant on the wire.
type ServerTag uint8

const (
	TagAskPassword    ServerTag = 0
	TagWrongPassword  ServerTag = 1
	TagAssignID       ServerTag = 2
	TagBadRequest     ServerTag = 3
	TagListOpponents  ServerTag = 4
	TagMatchAccepted  ServerTag = 5
	TagMatchStarted   ServerTag = 6
	TagMatchAttempt   ServerTag = 7
	TagIncorrectGuess ServerTag = 8
	TagMatchHint      ServerTag = 9
	TagMatchEnded     ServerTag = 10
	TagDisconnect     ServerTag = 11
)

// Reason explains why a request was rejected with BadRequest.
type Reason uint8

const (
	CannotCreateMatch Reason = 0
	MatchNotFound     Reason = 1
	PermissionDenied  Reason = 2
)

func (r Reason) String() string {
	switch r {
	case CannotCreateMatch:
		return "cannot_create_match"
	case MatchNotFound:
		return "match_not_found"
	case PermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// ClientMessage is the closed set of messages a client may send.
// The unexported marker keeps the set closed to this package.
type ClientMessage interface {
	ClientTag() ClientTag
	isClientMessage()
}

// ServerMessage is the closed set of messages the server may send.
type ServerMessage interface {
	ServerTag() ServerTag
	isServerMessage()
}

// --- client → server ---

type AnswerPassword struct {
	Password string
}

type GetOpponents struct{}

// RequestMatch asks to challenge Opponent with the secret Word.
type RequestMatch struct {
	Opponent uuid.UUID
	Word     string
}

type GuessAttempt struct {
	Match uuid.UUID
	Guess string
}

type SendHint struct {
	Match uuid.UUID
	Hint  string
}

type GiveUp struct {
	Match uuid.UUID
}

type LeaveGame struct{}

func (AnswerPassword) ClientTag() ClientTag { return TagAnswerPassword }
func (GetOpponents) ClientTag() ClientTag   { return TagGetOpponents }
func (RequestMatch) ClientTag() ClientTag   { return TagRequestMatch }
func (GuessAttempt) ClientTag() ClientTag   { return TagGuessAttempt }
func (SendHint) ClientTag() ClientTag       { return TagSendHint }
func (GiveUp) ClientTag() ClientTag         { return TagGiveUp }
func (LeaveGame) ClientTag() ClientTag      { return TagLeaveGame }

func (AnswerPassword) isClientMessage() {}
func (GetOpponents) isClientMessage()   {}
func (RequestMatch) isClientMessage()   {}
func (GuessAttempt) isClientMessage()   {}
func (SendHint) isClientMessage()       {}
func (GiveUp) isClientMessage()         {}
func (LeaveGame) isClientMessage()      {}

// --- server → client ---

type AskPassword struct{}

type WrongPassword struct{}

// AssignID tells an authenticated client its player id.
type AssignID struct {
	Player uuid.UUID
}

type BadRequest struct {
	Reason Reason
}

type ListOpponents struct {
	Players []uuid.UUID
}

// MatchAccepted is sent to the challenger once the match exists.
type MatchAccepted struct {
	Match uuid.UUID
}

// MatchStarted is sent to the guesser once the match exists.
type MatchStarted struct {
	Match uuid.UUID
}

// MatchAttempt reports a wrong guess to the challenger.
type MatchAttempt struct {
	Match    uuid.UUID
	Attempts uint32
	Hints    uint32
	Guess    string
}

// IncorrectGuess reports a wrong guess to the guesser.
type IncorrectGuess struct {
	Match    uuid.UUID
	Attempts uint32
}

type MatchHint struct {
	Match uuid.UUID
	Hint  string
}

type MatchEnded struct {
	Match    uuid.UUID
	Attempts uint32
	Hints    uint32
	Solved   bool
}

type Disconnect struct{}

func (AskPassword) ServerTag() ServerTag    { return TagAskPassword }
func (WrongPassword) ServerTag() ServerTag  { return TagWrongPassword }
func (AssignID) ServerTag() ServerTag       { return TagAssignID }
func (BadRequest) ServerTag() ServerTag     { return TagBadRequest }
func (ListOpponents) ServerTag() ServerTag  { return TagListOpponents }
func (MatchAccepted) ServerTag() ServerTag  { return TagMatchAccepted }
func (MatchStarted) ServerTag() ServerTag   { return TagMatchStarted }
func (MatchAttempt) ServerTag() ServerTag   { return TagMatchAttempt }
func (IncorrectGuess) ServerTag() ServerTag { return TagIncorrectGuess }
func (MatchHint) ServerTag() ServerTag      { return TagMatchHint }
func (MatchEnded) ServerTag() ServerTag     { return TagMatchEnded }
func (Disconnect) ServerTag() ServerTag     { return TagDisconnect }

func (AskPassword) isServerMessage()    {}
func (WrongPassword) isServerMessage()  {}
func (AssignID) isServerMessage()       {}
func (BadRequest) isServerMessage()     {}
func (ListOpponents) isServerMessage()  {}
func (MatchAccepted) isServerMessage()  {}
func (MatchStarted) isServerMessage()   {}
func (MatchAttempt) isServerMessage()   {}
func (IncorrectGuess) isServerMessage() {}
func (MatchHint) isServerMessage()      {}
func (MatchEnded) isServerMessage()     {}
func (Disconnect) isServerMessage()     {}
