// Package ui implements the terminal karaoke player using bubbletea's Elm architecture.
//
// The screen has two parts:
//  1. A track list holding the current search results (the local catalog on start)
//  2. A now-playing panel rendered from the controller's [playback.State]
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving messages via the [Msg] union type.
// State snapshots flow from [playback.Controller.Subscribe] through a blocking [tea.Cmd] that is re-armed after
// every snapshot, so the view never polls the controller.
//
// Press / to search (local files plus YouTube), enter to queue the results and play the selected one.
package ui
