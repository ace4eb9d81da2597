package tui

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuelmanso/etfoptimizer/internal/artifacts"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/session"
	testingpkg "github.com/manuelmanso/etfoptimizer/internal/testing"
)

func newTestModel(t *testing.T, deps session.Deps) (Model, *session.Session, *testingpkg.Service) {
	t.Helper()
	service := testingpkg.NewService(t)
	deps.Service = service.Client()
	deps.Log = zerolog.Nop()
	sess := session.New(deps)
	t.Cleanup(sess.Teardown)

	sess.Init(context.Background())
	require.Eventually(t, func() bool {
		v := sess.View()
		return v.Catalog != nil && v.Preview != nil
	}, 2*time.Second, 5*time.Millisecond)

	m := NewModel(sess)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 60})
	return m, sess, service
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+u":
		msg = tea.KeyMsg{Type: tea.KeyCtrlU}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return update(t, m, msg)
}

// focus moves the cursor to the named field.
func focus(t *testing.T, m Model, name string) Model {
	t.Helper()
	for i, f := range m.fields {
		if f.Name == name {
			m.cursor = i
			return m
		}
	}
	t.Fatalf("no field %q", name)
	return m
}

// syncView feeds the model a state change event, as the event loop would.
func syncView(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, eventMsg{event: &events.Event{Type: events.RequestStateChanged}})
	return m
}

func waitPhase(t *testing.T, sess *session.Session, phase domain.RequestPhase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return sess.View().State.Phase == phase
	}, 2*time.Second, 5*time.Millisecond)
}

func TestModel_ViewBeforeResize(t *testing.T) {
	service := testingpkg.NewService(t)
	sess := session.New(session.Deps{Service: service.Client(), Log: zerolog.Nop()})
	t.Cleanup(sess.Teardown)

	m := NewModel(sess)
	assert.Equal(t, "\n  Loading...", m.View())
}

func TestModel_RendersPreviewAndForm(t *testing.T) {
	m, _, _ := newTestModel(t, session.Deps{})

	out := m.render()
	assert.Contains(t, out, "ETFs matching filters: 812 out of 2000")
	assert.Contains(t, out, "Initial Value (€)")
	assert.Contains(t, out, "10,000 €")
	assert.Contains(t, out, "Minimum days with data")
	assert.Contains(t, out, domain.OptimizerMaxSharpe)
	assert.Contains(t, out, "ISIN list: none")
	assert.NotEmpty(t, m.View())
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	m, _, _ := newTestModel(t, session.Deps{})

	m, _ = press(t, m, "up")
	assert.Equal(t, 0, m.cursor)

	for range len(m.fields) + 3 {
		m, _ = press(t, m, "down")
	}
	assert.Equal(t, len(m.fields)-1, m.cursor)
}

func TestModel_EnumFieldCyclesCatalogOptions(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "optimizer")

	m, _ = press(t, m, "right")
	assert.Equal(t, domain.OptimizerEfficientRisk, sess.DisplayValue("optimizer"))

	m, _ = press(t, m, "left")
	m, _ = press(t, m, "left")
	assert.Equal(t, "", sess.DisplayValue("optimizer"))
	assert.Nil(t, sess.View().Parameters.Optimizer)

	// Wraps from the cleared position to the last option.
	_, _ = press(t, m, "left")
	assert.Equal(t, testingpkg.NewCatalogFixture().Optimizers[2], sess.DisplayValue("optimizer"))
}

func TestModel_FilterEnumRefreshesPreview(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "fundCurrency")

	m, _ = press(t, m, "enter")
	assert.Equal(t, "EUR", sess.DisplayValue("fundCurrency"))

	require.Eventually(t, func() bool {
		p := sess.View().Preview
		return p != nil && p.Matching == testingpkg.MatchingCurrency
	}, 2*time.Second, 5*time.Millisecond)

	m = syncView(t, m)
	assert.Contains(t, m.render(), "ETFs matching filters: 120 out of 2000")
}

func TestModel_BoolFieldToggles(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "shorting")

	m, _ = press(t, m, "enter")
	assert.Equal(t, "true", sess.DisplayValue("shorting"))

	_, _ = press(t, m, "right")
	assert.Equal(t, "false", sess.DisplayValue("shorting"))
}

func TestModel_EditTextField(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "initialValue")

	m, _ = press(t, m, "enter")
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "10000", m.input.Value())

	m, _ = press(t, m, "ctrl+u")
	m, _ = press(t, m, "25.000")
	assert.Equal(t, "25.000", m.input.Value())
	// Typing does not trigger form shortcuts.
	assert.Equal(t, modeEdit, m.mode)

	m, _ = press(t, m, "enter")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "25000", sess.DisplayValue("initialValue"))
	assert.Contains(t, m.render(), "25,000 €")
}

func TestModel_EditCancelledWithEsc(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "riskFreeRate")

	m, _ = press(t, m, "enter")
	m.input.SetValue("0.5")
	m, _ = press(t, m, "esc")

	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "0.02", sess.DisplayValue("riskFreeRate"))
}

func TestModel_UnparseableEditRemovesField(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "assetCutoff")

	m, _ = press(t, m, "enter")
	m.input.SetValue("abc")
	m, _ = press(t, m, "enter")

	assert.Nil(t, sess.View().Parameters.AssetCutoff)
	assert.Empty(t, m.notice)
}

func TestModel_ClearField(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "minimumDaysWithData")

	_, _ = press(t, m, "x")
	assert.Nil(t, sess.View().Filters.MinimumDaysWithData)
}

func TestModel_SubmitShowsResultTable(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})

	m, _ = press(t, m, "s")
	waitPhase(t, sess, domain.PhaseSucceeded)
	m = syncView(t, m)

	out := m.render()
	assert.Contains(t, out, "Sharpe Ratio: 1.43")
	assert.Contains(t, out, "Leftover funds: 41.27€")
	assert.Contains(t, out, "70.00%")
	assert.Contains(t, out, "Value (€)")
	assert.Contains(t, out, "Portfolio")
	assert.NotContains(t, out, "Optimizing...")
}

func TestModel_PendingShowsElapsedTime(t *testing.T) {
	m, sess, service := newTestModel(t, session.Deps{TickInterval: 5 * time.Millisecond})
	service.Hold()
	t.Cleanup(service.Release)

	m, _ = press(t, m, "s")
	require.Eventually(t, func() bool {
		st, ok := sess.View().Request.(domain.Pending)
		return ok && st.ElapsedSeconds >= 2
	}, 2*time.Second, 5*time.Millisecond)

	m = syncView(t, m)
	assert.Contains(t, m.render(), "Optimizing... ")

	service.Release()
	waitPhase(t, sess, domain.PhaseSucceeded)
}

func TestModel_ErrorBannerDismissedWithOneKey(t *testing.T) {
	m, sess, service := newTestModel(t, session.Deps{})
	service.SetOptimizeResponse(http.StatusBadRequest, []byte(`{"error": "Not enough ETFs match the filters"}`))

	m, _ = press(t, m, "s")
	waitPhase(t, sess, domain.PhaseFailed)
	m = syncView(t, m)

	out := m.render()
	assert.Contains(t, out, "Not enough ETFs match the filters")
	assert.Contains(t, out, "esc to dismiss")

	m, _ = press(t, m, "esc")
	assert.Equal(t, domain.PhaseIdle, sess.View().State.Phase)
	assert.NotContains(t, m.render(), "esc to dismiss")
}

func TestModel_ResetRestoresDefaults(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	require.NoError(t, sess.SetParameter("initialValue", "500"))

	m, _ = press(t, m, "r")
	assert.Equal(t, "10000", sess.DisplayValue("initialValue"))
	assert.Equal(t, "Configuration reset to defaults", m.notice)
}

func TestModel_LoadIsinListFromPath(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	path := filepath.Join(t.TempDir(), "isins.json")
	require.NoError(t, os.WriteFile(path, []byte(`["IE00B4L5Y983", "IE00B5BMR087"]`), 0o644))

	m, _ = press(t, m, "i")
	require.Equal(t, modeIsinPath, m.mode)
	m.input.SetValue(path)

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, []string{"IE00B4L5Y983", "IE00B5BMR087"}, sess.IsinList())
	assert.False(t, m.noticeErr)
	assert.Contains(t, m.render(), "ISIN list: 2 ISINs")
}

func TestModel_LoadIsinListErrors(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"isin": "IE00B4L5Y983"}`), 0o644))

	for _, path := range []string{bad, filepath.Join(dir, "missing.json")} {
		m, _ = press(t, m, "i")
		m.input.SetValue(path)
		var cmd tea.Cmd
		m, cmd = press(t, m, "enter")
		require.NotNil(t, cmd)
		m, _ = update(t, m, cmd())

		assert.True(t, m.noticeErr, path)
		assert.Contains(t, m.notice, "Failed to load")
	}
	assert.Empty(t, sess.IsinList())
}

func TestModel_ExportWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	m, sess, _ := newTestModel(t, session.Deps{
		Exporter: artifacts.NewExporter(artifacts.NewFileSink(dir, zerolog.Nop()), zerolog.Nop()),
	})

	m, _ = press(t, m, "s")
	waitPhase(t, sess, domain.PhaseSucceeded)

	m, cmd := press(t, m, "e")
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.False(t, m.noticeErr)
	assert.Contains(t, m.notice, "Exported")
	assert.FileExists(t, filepath.Join(dir, "portfolio.json"))
	assert.FileExists(t, filepath.Join(dir, "EfficientFrontier.png"))
}

func TestModel_ExportWithoutExporter(t *testing.T) {
	m, _, _ := newTestModel(t, session.Deps{})

	m, cmd := press(t, m, "e")
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "Export failed")
}

func TestModel_DiagnosticEventShowsNotice(t *testing.T) {
	m, _, _ := newTestModel(t, session.Deps{})

	m, cmd := update(t, m, eventMsg{event: &events.Event{
		Type: events.Diagnostic,
		Data: map[string]interface{}{"source": "catalog", "message": "catalog unavailable"},
	}})

	assert.NotNil(t, cmd)
	assert.True(t, m.noticeErr)
	assert.Equal(t, "catalog unavailable", m.notice)
}

func TestModel_EventLoopDeliversSessionEvents(t *testing.T) {
	m, sess, _ := newTestModel(t, session.Deps{})

	cmd := m.Init()
	require.NotNil(t, cmd)
	require.NoError(t, sess.SetParameter("assetCutoff", "0.5"))

	msg, ok := cmd().(eventMsg)
	require.True(t, ok)
	assert.NotNil(t, msg.event)
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, session.Deps{})

	m, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Nil(t, m.unsubscribe)
}

func TestModel_CtrlCQuitsWhileEditing(t *testing.T) {
	m, _, _ := newTestModel(t, session.Deps{})
	m = focus(t, m, "initialValue")

	m, _ = press(t, m, "enter")
	require.Equal(t, modeEdit, m.mode)

	_, cmd := press(t, m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
