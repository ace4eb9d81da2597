// Package tui is the terminal frontend of an optimizer session.
package tui

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
	"github.com/manuelmanso/etfoptimizer/internal/session"
)

// Session is the part of *session.Session the frontend drives.
type Session interface {
	View() session.View
	Events() *events.Manager
	DisplayValue(name string) string
	SetParameter(name, raw string) error
	SetFilter(name, raw string) error
	LoadIsinList(raw []byte) error
	IsinList() []string
	Reset()
	Submit() (uint64, error)
	Dismiss() bool
	Export(ctx context.Context) ([]string, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeIsinPath
)

const (
	eventBuffer   = 256
	exportTimeout = time.Minute
)

// field is one row of the form.
type field struct {
	configuration.FieldInfo
	filter bool
}

func formFields() []field {
	var out []field
	for _, f := range configuration.ParameterFields() {
		out = append(out, field{FieldInfo: f})
	}
	for _, f := range configuration.FilterFields() {
		out = append(out, field{FieldInfo: f, filter: true})
	}
	return out
}

type Model struct {
	session     Session
	events      chan *events.Event
	unsubscribe func()

	// Form
	fields []field
	cursor int
	mode   mode
	input  textinput.Model

	// Data
	snapshot  session.View
	notice    string
	noticeErr bool

	// UI state
	width        int
	height       int
	ready        bool
	contentDirty bool
	quitting     bool

	// Components
	viewport viewport.Model
	help     help.Model
}

// Messages

type eventMsg struct {
	event *events.Event
}

type isinLoadedMsg struct {
	path  string
	count int
	err   error
}

type exportMsg struct {
	locations []string
	err       error
}

// NewModel creates the frontend for sess and subscribes to its events.
// The subscription is released when the program quits.
func NewModel(sess Session) Model {
	ch := make(chan *events.Event, eventBuffer)
	unsubscribe := sess.Events().Bus().SubscribeAll(func(event *events.Event) {
		select {
		case ch <- event:
		default:
			// The next delivered event re-reads the whole session.
		}
	})

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 512

	return Model{
		session:     sess,
		events:      ch,
		unsubscribe: unsubscribe,
		fields:      formFields(),
		input:       input,
		snapshot:    sess.View(),
		help:        help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Commands

func waitForEvent(ch <-chan *events.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg{event: <-ch}
	}
}

func loadIsinFile(sess Session, path string) tea.Cmd {
	return func() tea.Msg {
		raw, err := os.ReadFile(path)
		if err != nil {
			return isinLoadedMsg{path: path, err: err}
		}
		if err := sess.LoadIsinList(raw); err != nil {
			return isinLoadedMsg{path: path, err: err}
		}
		return isinLoadedMsg{path: path, count: len(sess.IsinList())}
	}
}

func exportArtifacts(sess Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		locations, err := sess.Export(ctx)
		return exportMsg{locations: locations, err: err}
	}
}
