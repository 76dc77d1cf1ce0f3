// Package tui is the terminal front end: a file list player driving the
// playback engine through commands and rendering its events.
package tui

import (
	"math"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/trackinfo"
)

const (
	volumeStep  = 0.05
	seekSeconds = 5
)

// Engine is the part of the player the UI drives.
type Engine interface {
	Send(cmd player.Command) error
	Status() playback.State
}

// Options configures a Model.
type Options struct {
	Engine Engine
	Sub    *playback.Subscription
	// Session persists volume and last path; nil disables persistence.
	Session state.Interface
	Log     logrus.FieldLogger
	Files   []string
	// Start is the index of the first file to play.
	Start  int
	Volume float32
	// ReadInfo defaults to trackinfo.Read.
	ReadInfo func(path string) (*trackinfo.Info, error)
}

// Model is the bubbletea model.
type Model struct {
	engine   Engine
	sub      *playback.Subscription
	session  state.Interface
	log      logrus.FieldLogger
	readInfo func(string) (*trackinfo.Info, error)

	files  []string
	index  int
	volume float32

	// started is set once the engine confirmed the current track loaded.
	started bool
	info    *trackinfo.Info
	codec   string
	errMsg  string

	keys  keyMap
	help  help.Model
	width int
}

// New creates the model. Start is clamped to the file list.
func New(opts Options) Model {
	m := Model{
		engine:   opts.Engine,
		sub:      opts.Sub,
		session:  opts.Session,
		log:      opts.Log,
		readInfo: opts.ReadInfo,
		files:    opts.Files,
		volume:   clampVolume(opts.Volume),
		keys:     newKeyMap(),
		help:     help.New(),
		width:    80,
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	if m.readInfo == nil {
		m.readInfo = trackinfo.Read
	}
	if len(m.files) > 0 {
		m.index = min(max(opts.Start, 0), len(m.files)-1)
	}
	return m
}

// Init starts the first track and the event watchers.
func (m Model) Init() tea.Cmd {
	if len(m.files) > 0 {
		m.load()
	}
	return tea.Batch(watchEvents(m.sub), tickCmd())
}

// Update handles keys, engine events and the end-of-track tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case positionMsg:
		return m, watchEvents(m.sub)

	case trackMsg:
		if msg.Path != m.current() {
			return m, watchEvents(m.sub)
		}
		m.started = true
		m.codec = msg.Codec
		m.errMsg = ""
		return m, tea.Batch(watchEvents(m.sub), readInfo(m.readInfo, msg.Path))

	case infoMsg:
		if msg.path == m.current() {
			m.info = msg.info
			m.log.WithField("track", msg.info.Label()).Info("now playing")
		}
		return m, nil

	case errorMsg:
		m.errMsg = playback.ErrorEvent(msg).Message()
		return m, watchEvents(m.sub)

	case closedMsg:
		return m, nil

	case tickMsg:
		return m.handleTick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		m.send(player.TogglePlayback{})
	case key.Matches(msg, m.keys.next):
		return m.step(1)
	case key.Matches(msg, m.keys.prev):
		return m.step(-1)
	case key.Matches(msg, m.keys.volUp):
		m.setVolume(m.volume + volumeStep)
	case key.Matches(msg, m.keys.volDown):
		m.setVolume(m.volume - volumeStep)
	case key.Matches(msg, m.keys.seekBack):
		m.seekBy(-seekSeconds)
	case key.Matches(msg, m.keys.seekForward):
		m.seekBy(seekSeconds)
	}
	return m, nil
}

// handleTick advances to the next file once the current track has ended.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.started && !m.engine.Status().Playing {
		m.started = false
		if m.index+1 < len(m.files) {
			m.index++
			m.info = nil
			m.codec = ""
			m.load()
		}
	}
	return m, tickCmd()
}

func (m Model) step(delta int) (tea.Model, tea.Cmd) {
	if len(m.files) == 0 {
		return m, nil
	}
	next := m.index + delta
	if next < 0 || next >= len(m.files) {
		return m, nil
	}
	m.index = next
	m.started = false
	m.info = nil
	m.codec = ""
	m.load()
	return m, nil
}

// load sends LoadAndPlay for the current file and records it as last path.
func (m Model) load() {
	m.send(player.LoadAndPlay{Path: m.current()})
	m.save()
}

func (m *Model) setVolume(v float32) {
	m.volume = clampVolume(v)
	m.send(player.VolumeChange{Level: m.volume})
	m.save()
}

func (m Model) seekBy(delta float64) {
	st := m.engine.Status()
	if !st.Playing {
		return
	}
	m.send(player.Seek{PositionSeconds: max(st.PositionSeconds()+delta, 0)})
}

func (m Model) send(cmd player.Command) {
	if err := m.engine.Send(cmd); err != nil {
		m.log.WithError(err).Warn("sending player command")
	}
}

func (m Model) save() {
	if m.session == nil {
		return
	}
	m.session.SaveSession(state.Session{
		Volume:   float64(m.volume),
		LastPath: m.current(),
	})
}

func (m Model) current() string {
	if len(m.files) == 0 {
		return ""
	}
	return m.files[m.index]
}

// clampVolume limits v to [0, 1].
func clampVolume(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	return min(max(v, 0), 1)
}

// StartIndex returns the position of last in files, or 0.
func StartIndex(files []string, last string) int {
	for i, f := range files {
		if f == last {
			return i
		}
	}
	return 0
}
