package cartview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/cartd/internal/cart"
	"github.com/fyrsmithlabs/cartd/internal/catalog"
)

type pane int

const (
	catalogPane pane = iota
	cartPane
)

// Lipgloss styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	focusedSectionStyle = sectionStyle.
				Underline(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("238")).
			Bold(true)

	priceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	totalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)
)

// changedMsg carries the re-rendered cart after an intent.
type changedMsg struct {
	doc Document
	err error
}

// Model is the terminal storefront: a catalog pane to add from and a cart
// pane to edit. Each intent goes through View.Dispatch and the cart pane is
// redrawn from the Document it returns.
type Model struct {
	ctx   context.Context
	view  *View
	items []catalog.Item
	doc   Document

	focus         pane
	catalogCursor int
	cartCursor    int
	showManifest  bool
	manifest      string
	err           error
	quitting      bool

	keys keyMap
	help help.Model
}

// NewModel creates a Model over view. ctx is passed to every store call.
func NewModel(ctx context.Context, view *View) Model {
	return Model{
		ctx:   ctx,
		view:  view,
		items: view.CatalogItems(),
		doc:   view.Render(),
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
}

// Document returns the cart as last rendered.
func (m Model) Document() Document { return m.doc }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) dispatch(intent Intent) tea.Cmd {
	return func() tea.Msg {
		doc, err := m.view.Dispatch(m.ctx, intent)
		return changedMsg{doc: doc, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case changedMsg:
		m.doc = msg.doc
		m.err = msg.err
		if m.cartCursor >= len(m.doc.Lines) {
			m.cartCursor = max(len(m.doc.Lines)-1, 0)
		}
		if m.showManifest {
			m.manifest = m.view.Manifest()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Switch):
		if m.focus == catalogPane {
			m.focus = cartPane
		} else {
			m.focus = catalogPane
		}

	case key.Matches(msg, m.keys.Up):
		if m.focus == catalogPane && m.catalogCursor > 0 {
			m.catalogCursor--
		} else if m.focus == cartPane && m.cartCursor > 0 {
			m.cartCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.focus == catalogPane && m.catalogCursor < len(m.items)-1 {
			m.catalogCursor++
		} else if m.focus == cartPane && m.cartCursor < len(m.doc.Lines)-1 {
			m.cartCursor++
		}

	case key.Matches(msg, m.keys.Add):
		if id, ok := m.selectedID(); ok {
			return m, m.dispatch(Intent{Action: ActionAdd, ItemID: id})
		}

	case key.Matches(msg, m.keys.More), key.Matches(msg, m.keys.Less):
		if m.focus != cartPane || len(m.doc.Lines) == 0 {
			return m, nil
		}
		line := m.doc.Lines[m.cartCursor]
		qty := line.Quantity + 1
		if key.Matches(msg, m.keys.Less) {
			qty = line.Quantity - 1
		}
		return m, m.dispatch(Intent{
			Action:   ActionSetQuantity,
			ItemID:   line.ItemID,
			Quantity: strconv.Itoa(qty),
		})

	case key.Matches(msg, m.keys.Remove):
		if m.focus == cartPane && len(m.doc.Lines) > 0 {
			return m, m.dispatch(Intent{Action: ActionRemove, ItemID: m.doc.Lines[m.cartCursor].ItemID})
		}

	case key.Matches(msg, m.keys.Clear):
		return m, m.dispatch(Intent{Action: ActionClear})

	case key.Matches(msg, m.keys.Manifest):
		m.showManifest = !m.showManifest
		if m.showManifest {
			m.manifest = m.view.Manifest()
		}
	}
	return m, nil
}

// selectedID returns the item id under the cursor of the focused pane.
func (m Model) selectedID() (int, bool) {
	if m.focus == catalogPane {
		if len(m.items) == 0 {
			return 0, false
		}
		return m.items[m.catalogCursor].ID, true
	}
	if len(m.doc.Lines) == 0 {
		return 0, false
	}
	return m.doc.Lines[m.cartCursor].ItemID, true
}

// View renders the storefront
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(" cartd ") + "  " + dimStyle.Render(headline(m.doc)) + "\n")

	b.WriteString(m.sectionTitle("Catalog", catalogPane) + "\n")
	for i, item := range m.items {
		row := fmt.Sprintf("%-22s %s", item.Name, priceStyle.Render(fmt.Sprintf("%s%d", m.doc.Currency, item.UnitPrice)))
		b.WriteString(m.row(row, m.focus == catalogPane && i == m.catalogCursor) + "\n")
	}

	b.WriteString(m.sectionTitle("Cart", cartPane) + "\n")
	if len(m.doc.Lines) == 0 {
		b.WriteString(dimStyle.Render(EmptyList) + "\n")
	} else {
		for i, l := range m.doc.Lines {
			row := fmt.Sprintf("%-22s %s x %d", l.Name,
				priceStyle.Render(fmt.Sprintf("%s%d", m.doc.Currency, l.UnitPrice)), l.Quantity)
			b.WriteString(m.row(row, m.focus == cartPane && i == m.cartCursor) + "\n")
		}
		b.WriteString(totalStyle.Render(fmt.Sprintf("Total: %s%d", m.doc.Currency, m.doc.Total)) + "\n")
	}

	if m.showManifest {
		b.WriteString(sectionStyle.Render("Order summary") + "\n")
		b.WriteString(m.manifest + "\n")
	}

	if m.doc.Warning != "" {
		b.WriteString("\n" + warningStyle.Render("⚠ "+m.doc.Warning) + "\n")
	}
	// persistence failures already show as the warning
	if m.err != nil && !errors.Is(m.err, cart.ErrPersistence) {
		b.WriteString("\n" + errorStyle.Render("✗ "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return containerStyle.Render(b.String())
}

func (m Model) sectionTitle(title string, p pane) string {
	if m.focus == p {
		return focusedSectionStyle.Render(title)
	}
	return sectionStyle.Render(title)
}

func (m Model) row(s string, selected bool) string {
	if selected {
		return selectedStyle.Render("> " + s)
	}
	return "  " + s
}

func headline(doc Document) string {
	if len(doc.Lines) == 0 {
		return EmptySummary
	}
	return fmt.Sprintf("%d item(s) • Total: %s%d", len(doc.Lines), doc.Currency, doc.Total)
}
