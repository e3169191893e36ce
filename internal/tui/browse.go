// internal/tui/browse.go
// Package tui provides the interactive knowledge-base browser.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jgrady/notekb/internal/appconfig"
	"github.com/jgrady/notekb/internal/rag"
	"github.com/jgrady/notekb/internal/util"
)

// Config represents the shared application configuration for the browser.
type Config = appconfig.Config

// viewState represents the current view or screen of the application.
type viewState int

const (
	// viewLoadingIndex is the state while the retrieval index is being built.
	viewLoadingIndex viewState = iota
	// viewSearch is the state where the user queries the knowledge base.
	viewSearch
)

// model is the main application model for the Bubble Tea UI.
type model struct {
	ctx              context.Context
	config           *Config
	index            rag.Index
	state            viewState
	isLoading        bool
	err              error
	textArea         textarea.Model
	viewport         viewport.Model
	spinner          spinner.Model
	lastQuery        string
	results          rag.Result
	contextBlock     string
	width, height    int
	requestStartTime time.Time
}

// initialModel creates and initializes a new model with default values.
func initialModel(ctx context.Context, cfg *Config) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Search the knowledge base..."
	ta.Focus()
	ta.Prompt = "Query: "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(100, 5)

	return &model{
		ctx:              ctx,
		config:           cfg,
		state:            viewLoadingIndex,
		isLoading:        true,
		spinner:          s,
		textArea:         ta,
		viewport:         vp,
		requestStartTime: time.Now(),
	}
}

// indexReadyMsg is a message sent when the retrieval index has been built.
type indexReadyMsg struct{ index rag.Index }

// indexLoadErr is a message sent when the index build fails.
type indexLoadErr struct{ error }

// searchDoneMsg is a message sent when a query round-trip completes.
type searchDoneMsg struct {
	results      rag.Result
	contextBlock string
}

// searchErr is a message sent when a query fails.
type searchErr struct{ error }

// tickMsg is a message sent at regular intervals, used for animations and timed updates.
type tickMsg time.Time

// buildIndexCmd creates a Bubble Tea command that builds the retrieval index.
func buildIndexCmd(ctx context.Context, cfg *Config) tea.Cmd {
	return func() tea.Msg {
		idx, err := rag.BuildIndex(ctx, cfg)
		if err != nil {
			return indexLoadErr{error: err}
		}
		if idx == nil {
			return indexLoadErr{error: fmt.Errorf("retrieval is disabled in the configuration")}
		}
		return indexReadyMsg{index: idx}
	}
}

// searchCmd creates a Bubble Tea command that runs one query against the index.
func searchCmd(ctx context.Context, idx rag.Index, query string, topK, maxChars int) tea.Cmd {
	return func() tea.Msg {
		results, err := rag.Retrieve(ctx, idx, query, topK)
		if err != nil {
			return searchErr{error: err}
		}
		return searchDoneMsg{
			results:      results,
			contextBlock: rag.FormatContext(results, maxChars),
		}
	}
}

// tickCmd creates a Bubble Tea command that sends a tickMsg at a regular interval.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner and kicks off the index build.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, buildIndexCmd(m.ctx, m.config), tickCmd())
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(msg.Width - 3)
		headerHeight := 3
		footerHeight := 4
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight

	case indexReadyMsg:
		m.isLoading = false
		m.index = msg.index
		m.state = viewSearch
		m.textArea.Focus()
		return m, nil

	case indexLoadErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil

	case searchDoneMsg:
		m.isLoading = false
		m.results = msg.results
		m.contextBlock = msg.contextBlock
		m.viewport.SetContent(m.resultsView())
		m.viewport.GotoTop()
		m.textArea.Focus()
		return m, nil

	case searchErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	if m.state == viewSearch {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

		m.textArea, cmd = m.textArea.Update(msg)
		cmds = append(cmds, cmd)

		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
			query := strings.TrimSpace(m.textArea.Value())
			if query != "" {
				m.lastQuery = query
				m.textArea.Reset()
				m.isLoading = true
				m.err = nil
				m.requestStartTime = time.Now()
				cmds = append(cmds, m.spinner.Tick, searchCmd(m.ctx, m.index, query, m.config.RetrievalTopK(), m.config.ContextBudget()), tickCmd())
			}
		}
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the application's UI based on the current state of the model.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	switch m.state {
	case viewLoadingIndex:
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		return fmt.Sprintf("\n  %s Building %s index... %ss\n", m.spinner.View(), m.config.Backend(), timer)

	case viewSearch:
		return m.searchView()

	default:
		return "Unknown state"
	}
}

// searchView renders the search interface: header badge, result viewport,
// and the query input.
func (m *model) searchView() string {
	var builder strings.Builder

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	header := fmt.Sprintf("notekb | backend: %s | rows: %d | topK: %d",
		m.index.Kind(), m.index.Len(), m.config.RetrievalTopK())
	builder.WriteString(headerStyle.Render(header))
	builder.WriteString("\n\n")

	builder.WriteString(m.viewport.View())
	builder.WriteString("\n\n")

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		builder.WriteString(fmt.Sprintf("%s Searching... %ss\n", m.spinner.View(), timer))
	} else {
		builder.WriteString(m.textArea.View())
		builder.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	builder.WriteString(helpStyle.Render("enter: search  |  esc: quit"))

	return builder.String()
}

// resultsView renders the ranked rows and the formatted context block.
func (m *model) resultsView() string {
	if m.lastQuery == "" {
		return "Type a query and press enter."
	}
	if len(m.results) == 0 {
		return fmt.Sprintf("No results for %q.", m.lastQuery)
	}

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("36")).Bold(true)
	scoreStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Results for %q:\n\n", m.lastQuery))
	for i, r := range m.results {
		builder.WriteString(fmt.Sprintf("%d. %s %s\n", i+1,
			titleStyle.Render(r.Entry.Title),
			scoreStyle.Render(fmt.Sprintf("score=%.6f row=kb_%d", r.Score, r.RowID))))
		builder.WriteString("   " + util.TruncateRunes(util.FirstLine(r.Entry.Text), 200) + "\n\n")
	}

	if m.contextBlock != "" {
		builder.WriteString("----------------------------------------------------------------\n")
		builder.WriteString(util.WrapToWidth(m.contextBlock, m.viewport.Width-2))
		builder.WriteString("\n")
	}

	return builder.String()
}

// Run starts the knowledge-base browser and blocks until the user exits.
func Run(ctx context.Context, cfg *Config) error {
	m := initialModel(ctx, cfg)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
