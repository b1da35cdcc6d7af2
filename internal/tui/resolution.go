package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/i18n"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/resolver"
)

// OutcomeMsg carries one keyword's outcome into the progress display.
type OutcomeMsg struct {
	Index   int
	Keyword string
	Outcome resolver.Outcome
}

// BatchDoneMsg ends the progress display.
type BatchDoneMsg struct{}

// ResolutionModel renders a batch's per-keyword status with an overall
// progress bar. It consumes OutcomeMsg from the resolver callback and
// httpclient.ProgressMsg from in-flight downloads.
type ResolutionModel struct {
	kind     models.Kind
	keywords []string

	outcomes map[int]resolver.Outcome
	download float64

	bar   progress.Model
	width int
	done  bool
}

func NewResolutionModel(kind models.Kind, keywords []string) ResolutionModel {
	return ResolutionModel{
		kind:     kind,
		keywords: keywords,
		outcomes: make(map[int]resolver.Outcome),
		bar:      progress.New(progress.WithDefaultGradient()),
	}
}

func (m ResolutionModel) Init() tea.Cmd {
	return nil
}

func (m ResolutionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 4
		return m, nil

	case OutcomeMsg:
		m.outcomes[msg.Index] = msg.Outcome
		m.download = 0
		return m, nil

	case httpclient.ProgressMsg:
		m.download = float64(msg)
		return m, nil

	case httpclient.ProgressErrMsg:
		return m, nil

	case BatchDoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// Completed is the fraction of keywords with a known outcome.
func (m ResolutionModel) Completed() float64 {
	if len(m.keywords) == 0 {
		return 1
	}
	return float64(len(m.outcomes)) / float64(len(m.keywords))
}

func (m ResolutionModel) View() string {
	var view strings.Builder

	view.WriteString(TitleStyle.Render(i18n.T("install.kind_heading", i18n.Tvars{Data: &i18n.TData{
		"kind": m.kind.ActiveDirName(),
	}})))
	view.WriteString("\n")

	for index, keyword := range m.keywords {
		outcome, known := m.outcomes[index]
		if !known {
			view.WriteString(ItemStyle.Render(MutedStyle.Render("… " + keyword)))
			view.WriteString("\n")
			continue
		}
		view.WriteString(ItemStyle.Render(statusIcon(outcome) + " " + keyword))
		view.WriteString("\n")
	}

	if !m.done {
		view.WriteString(m.bar.ViewAs(m.Completed()))
		view.WriteString("\n")
	}

	return view.String()
}

func statusIcon(outcome resolver.Outcome) string {
	switch outcome.Kind {
	case resolver.CachedLocal:
		return CacheIcon(true)
	case resolver.Downloaded:
		return DownloadIcon(true)
	default:
		return ErrorIcon(true)
	}
}
