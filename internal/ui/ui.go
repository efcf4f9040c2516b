package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/playback"
	"github.com/desertthunder/karaoke/internal/shared"
)

const (
	seekStep   = 5.0
	volumeStep = 0.1
)

// Player is the part of [playback.Controller] the TUI drives.
type Player interface {
	State() playback.State
	Subscribe() (<-chan playback.State, func())
	SetQueue(tracks []models.Track, index int) error
	PlayPause() error
	Next() error
	Previous() error
	Seek(seconds float64) error
	SetVolume(v float64) error
	ToggleMute() error
	ToggleRepeat() error
	ToggleShuffle() error
}

// Searcher runs the aggregated search. [search.Aggregator] implements it.
type Searcher interface {
	Search(ctx context.Context, query string) (models.SearchResponse, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	player    Player
	searcher  Searcher
	states    <-chan playback.State
	cancel    func()
	state     playback.State
	results   []models.SearchResult
	query     string
	trackList list.Model
	input     textinput.Model
	searching bool
	loading   bool
	width     int
	height    int
	err       error
	help      help.Model
	keys      keyMap
}

var _ tea.Model = (*Model)(nil)

// NewModel creates the player model. It subscribes to player immediately; call [Model.Close] when done.
func NewModel(ctx context.Context, player Player, searcher Searcher) *Model {
	input := textinput.New()
	input.Placeholder = "song or artist"
	input.Prompt = "search: "
	input.CharLimit = 120

	trackList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	trackList.Title = "Local songs"
	trackList.SetFilteringEnabled(false)
	trackList.SetShowHelp(false)

	states, cancel := player.Subscribe()
	return &Model{
		ctx:       ctx,
		player:    player,
		searcher:  searcher,
		states:    states,
		cancel:    cancel,
		state:     player.State(),
		trackList: trackList,
		input:     input,
		loading:   true,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Close cancels the state subscription.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Init loads the local catalog and starts listening for playback state.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchResults(""), m.waitForState())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, max(msg.Height-12, 4))
		m.input.Width = max(msg.Width-12, 10)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleListKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgResultsFetched:
		data := msg.data.(resultsData)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.query = data.query
		m.results = data.results
		cmd := m.trackList.SetItems(toItems(data.results))
		m.trackList.Select(0)
		if data.query == "" {
			m.trackList.Title = "Local songs"
		} else {
			m.trackList.Title = fmt.Sprintf("Results for %q", data.query)
		}
		return m, cmd

	case MsgStateChanged:
		m.state = msg.data.(playback.State)
		return m, m.waitForState()

	case MsgSubscriptionClosed:
		m.states = nil
		return m, nil

	case MsgCommandFailed:
		m.err = msg.data.(error)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.input.Blur()
		m.loading = true
		return m, m.fetchResults(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.back):
		if m.query != "" {
			m.loading = true
			return m, m.fetchResults("")
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.playSelected()
	case key.Matches(msg, m.keys.playPause):
		return m, m.control(m.player.PlayPause)
	case key.Matches(msg, m.keys.next):
		return m, m.control(m.player.Next)
	case key.Matches(msg, m.keys.prev):
		return m, m.control(m.player.Previous)
	case key.Matches(msg, m.keys.forward):
		pos := m.state.Position + seekStep
		return m, m.control(func() error { return m.player.Seek(pos) })
	case key.Matches(msg, m.keys.rewind):
		pos := max(m.state.Position-seekStep, 0)
		return m, m.control(func() error { return m.player.Seek(pos) })
	case key.Matches(msg, m.keys.louder):
		v := m.state.Volume + volumeStep
		return m, m.control(func() error { return m.player.SetVolume(v) })
	case key.Matches(msg, m.keys.quieter):
		v := m.state.Volume - volumeStep
		return m, m.control(func() error { return m.player.SetVolume(v) })
	case key.Matches(msg, m.keys.mute):
		return m, m.control(m.player.ToggleMute)
	case key.Matches(msg, m.keys.repeat):
		return m, m.control(m.player.ToggleRepeat)
	case key.Matches(msg, m.keys.shuffle):
		return m, m.control(m.player.ToggleShuffle)
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

// playSelected queues every playable result and starts the highlighted one.
func (m *Model) playSelected() tea.Cmd {
	selected := m.trackList.Index()
	if selected < 0 || selected >= len(m.results) {
		return nil
	}

	tracks := make([]models.Track, 0, len(m.results))
	index := -1
	for i, r := range m.results {
		t, err := r.Track()
		if err != nil {
			continue
		}
		if i == selected {
			index = len(tracks)
		}
		tracks = append(tracks, t)
	}
	if index < 0 {
		return func() tea.Msg {
			return commandFailedMsg(fmt.Errorf("%w: %q cannot be played", shared.ErrInvalidTrack, m.results[selected].Title))
		}
	}

	return m.control(func() error { return m.player.SetQueue(tracks, index) })
}

// control runs fn off the update loop. Failures surface as [MsgCommandFailed].
func (m *Model) control(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return commandFailedMsg(err)
		}
		return nil
	}
}

func (m *Model) fetchResults(query string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.searcher.Search(m.ctx, query)
		if err != nil {
			return resultsFetchedMsg(query, nil, err)
		}
		return resultsFetchedMsg(strings.TrimSpace(query), resp.Results, nil)
	}
}

func (m *Model) waitForState() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		if states == nil {
			return subscriptionClosedMsg()
		}
		s, ok := <-states
		if !ok {
			return subscriptionClosedMsg()
		}
		return stateChangedMsg(s)
	}
}

// View renders the search bar, the track list and the now-playing panel.
func (m *Model) View() string {
	var b strings.Builder

	if m.searching {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if m.loading && len(m.results) == 0 {
		b.WriteString(styles.help.Render("Loading songs..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.trackList.View())
		b.WriteString("\n")
	}

	b.WriteString(styles.panel.Render(m.renderNowPlaying()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) helpKeys() []key.Binding {
	if m.searching {
		return []key.Binding{m.keys.enter, m.keys.back}
	}
	return []key.Binding{
		m.keys.enter, m.keys.playPause, m.keys.next, m.keys.prev, m.keys.forward,
		m.keys.louder, m.keys.mute, m.keys.repeat, m.keys.shuffle, m.keys.search, m.keys.quit,
	}
}

func (m *Model) renderNowPlaying() string {
	s := m.state
	if s.Track == nil {
		return styles.help.Render("Nothing playing")
	}

	var status string
	switch s.Status {
	case playback.Playing:
		status = styles.playing.Render("▶ playing")
	case playback.Paused:
		status = styles.warn.Render("❚❚ paused")
	case playback.Loading:
		status = styles.help.Render("… loading")
	default:
		status = styles.help.Render("■ stopped")
	}

	title := styles.title.UnsetMarginBottom().Render(s.Track.Label())
	progress := fmt.Sprintf("%s / %s", shared.FormatDuration(int(s.Position)), shared.FormatDuration(int(s.Duration)))

	volume := fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5))
	if s.Muted {
		volume += " (muted)"
	}

	var flags []string
	if s.Repeat {
		flags = append(flags, "repeat")
	}
	if s.Shuffle {
		flags = append(flags, "shuffle")
	}

	line := fmt.Sprintf("%s  %s  %s", status, progress, volume)
	if len(flags) > 0 {
		line += "  " + strings.Join(flags, " ")
	}

	out := title + "\n" + line
	if s.Err != nil {
		out += "\n" + styles.err.Render(s.Err.Error())
	}
	return out
}
