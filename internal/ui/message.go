package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/playback"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgResultsFetched MsgKind = iota
	MsgStateChanged
	MsgSubscriptionClosed
	MsgCommandFailed
)

type resultsData struct {
	query   string
	results []models.SearchResult
	err     error
}

// resultsFetchedMsg is the constructor for [MsgResultsFetched]
func resultsFetchedMsg(query string, results []models.SearchResult, err error) Msg {
	return Msg{kind: MsgResultsFetched, data: resultsData{query, results, err}}
}

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(s playback.State) Msg {
	return Msg{kind: MsgStateChanged, data: s}
}

// subscriptionClosedMsg is the constructor for [MsgSubscriptionClosed]
func subscriptionClosedMsg() Msg {
	return Msg{kind: MsgSubscriptionClosed}
}

// commandFailedMsg is the constructor for [MsgCommandFailed]
func commandFailedMsg(err error) Msg {
	return Msg{kind: MsgCommandFailed, data: err}
}
