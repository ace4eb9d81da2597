package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(m.width, m.height)
		// Arrow keys belong to the form; only paging scrolls.
		m.viewport.KeyMap = viewport.KeyMap{
			PageDown: key.NewBinding(key.WithKeys("pgdown")),
			PageUp:   key.NewBinding(key.WithKeys("pgup")),
		}
		m.help.Width = m.width
		m.ready = true
		m.contentDirty = true

	case tea.KeyMsg:
		if key.Matches(msg, forceQuit) {
			return m.quit()
		}
		if m.mode != modeBrowse {
			m, cmd = m.updateInput(msg)
		} else {
			m, cmd = m.updateBrowse(msg)
		}
		if m.quitting {
			return m, cmd
		}

	case eventMsg:
		if msg.event != nil && msg.event.Type == events.Diagnostic {
			if data, ok := msg.event.GetTypedData().(*events.DiagnosticData); ok {
				m.setNotice(data.Message, true)
			}
		}
		m.refresh()
		cmd = waitForEvent(m.events)

	case isinLoadedMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Failed to load %s: %v", msg.path, msg.err), true)
		} else {
			m.setNotice(fmt.Sprintf("Loaded %d ISINs from %s", msg.count, msg.path), false)
		}
		m.refresh()

	case exportMsg:
		if msg.err != nil {
			m.setNotice("Export failed: "+msg.err.Error(), true)
		} else {
			m.setNotice("Exported "+strings.Join(msg.locations, ", "), false)
		}
	}

	if m.ready {
		if m.contentDirty {
			m.rebuildContent()
			m.contentDirty = false
		}
		if _, isKey := msg.(tea.KeyMsg); !isKey || m.mode == modeBrowse {
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			if vpCmd != nil {
				cmd = tea.Batch(cmd, vpCmd)
			}
		}
	}
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (Model, tea.Cmd) {
	current := m.fields[m.cursor]

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.contentDirty = true

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.fields)-1 {
			m.cursor++
		}
		m.contentDirty = true

	case key.Matches(msg, keys.Edit):
		switch current.Kind {
		case configuration.KindEnum:
			m.cycle(current, 1)
		case configuration.KindBool:
			m.toggle(current)
		default:
			m.mode = modeEdit
			m.input.Placeholder = current.Label
			m.input.SetValue(m.session.DisplayValue(current.Name))
			m.input.CursorEnd()
			m.contentDirty = true
			cmd := m.input.Focus()
			return m, cmd
		}

	case key.Matches(msg, keys.Next):
		m.step(current, 1)

	case key.Matches(msg, keys.Prev):
		m.step(current, -1)

	case key.Matches(msg, keys.Clear):
		m.set(current, "")

	case key.Matches(msg, keys.Submit):
		if _, err := m.session.Submit(); err != nil {
			m.setNotice(err.Error(), true)
		}
		m.refresh()

	case key.Matches(msg, keys.Reset):
		m.session.Reset()
		m.setNotice("Configuration reset to defaults", false)
		m.refresh()

	case key.Matches(msg, keys.Dismiss):
		if m.session.Dismiss() {
			m.notice = ""
		}
		m.refresh()

	case key.Matches(msg, keys.Isin):
		m.mode = modeIsinPath
		m.input.Placeholder = "path to a JSON array of ISINs"
		m.input.SetValue("")
		m.contentDirty = true
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, keys.Export):
		m.setNotice("Exporting...", false)
		return m, exportArtifacts(m.session)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, inputCancel):
		m.mode = modeBrowse
		m.input.Blur()
		m.contentDirty = true
		return m, nil

	case key.Matches(msg, inputConfirm):
		value := m.input.Value()
		current := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		m.contentDirty = true
		if current == modeIsinPath {
			path := strings.TrimSpace(value)
			if path == "" {
				return m, nil
			}
			return m, loadIsinFile(m.session, path)
		}
		m.set(m.fields[m.cursor], value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.contentDirty = true
	return m, cmd
}

// step moves an enum field through its options or flips a boolean.
func (m *Model) step(f field, dir int) {
	switch f.Kind {
	case configuration.KindEnum:
		m.cycle(f, dir)
	case configuration.KindBool:
		m.toggle(f)
	}
}

// cycle advances an enum field through the catalog options. The position
// before the first option is the cleared field.
func (m *Model) cycle(f field, dir int) {
	m.refresh()
	options := m.snapshot.Catalog.Options(f.Enum)
	if len(options) == 0 {
		m.setNotice("Catalog not loaded yet", true)
		return
	}
	choices := append([]string{""}, options...)
	i := slices.Index(choices, m.session.DisplayValue(f.Name))
	if i < 0 {
		i = 0
	}
	i = (i + dir + len(choices)) % len(choices)
	m.set(f, choices[i])
}

func (m *Model) toggle(f field) {
	current, _ := strconv.ParseBool(m.session.DisplayValue(f.Name))
	m.set(f, strconv.FormatBool(!current))
}

func (m *Model) set(f field, raw string) {
	var err error
	if f.filter {
		err = m.session.SetFilter(f.Name, raw)
	} else {
		err = m.session.SetParameter(f.Name, raw)
	}
	if err != nil {
		m.setNotice(err.Error(), true)
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.snapshot = m.session.View()
	m.contentDirty = true
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
	m.contentDirty = true
}

// quit releases the event subscription and stops the program.
func (m Model) quit() (Model, tea.Cmd) {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.quitting = true
	return m, tea.Quit
}
