// Package views provides TUI view components for the novelvip application.
package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Nhatlinh9898/novelvip/internal/tui/styles"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

// WizardStep represents a step in the wizard.
type WizardStep int

const (
	StepGenre WizardStep = iota
	StepTone
	StepPOV
	StepSetting
	StepMainCharacter
	StepPlotIdea
)

const totalSteps = 6

// ErrPlotIdeaRequired is shown when the last step is confirmed empty.
var ErrPlotIdeaRequired = errors.New("core plot idea is required")

var stepTitles = []string{
	"Genre",
	"Tone",
	"Point of View",
	"Setting",
	"Main Character",
	"Core Plot Idea",
}

var stepHelps = []string{
	"Choose the genre of the novel",
	"Choose the mood of the writing",
	"Choose who tells the story",
	"Describe the world and era the story takes place in",
	"Name the protagonist and sketch who they are",
	"Describe the story in a few sentences. This one is required",
}

// WizardModel implements tea.Model for collecting a novel premise.
type WizardModel struct {
	currentStep WizardStep
	totalSteps  int
	result      types.NovelConfig
	completed   bool
	cancelled   bool
	err         error

	// Input components
	genreList      list.Model
	toneList       list.Model
	povList        list.Model
	settingInput   textinput.Model
	characterInput textinput.Model
	plotInput      textarea.Model

	// Dimensions
	width  int
	height int
	ready  bool
}

// listItem implements list.Item for the choice steps.
type listItem string

func (i listItem) Title() string       { return string(i) }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return string(i) }

func newChoiceList(title string, choices []string, selected string) list.Model {
	items := make([]list.Item, len(choices))
	index := 0
	for i, c := range choices {
		items[i] = listItem(c)
		if c == selected {
			index = i
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = styles.SelectedItem
	delegate.Styles.NormalTitle = styles.ListItem

	l := list.New(items, delegate, 40, len(choices)+4)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.Styles.Title = styles.Title
	l.Select(index)
	return l
}

// NewWizard creates a wizard prefilled with initial.
func NewWizard(initial types.NovelConfig) *WizardModel {
	settingInput := textinput.New()
	settingInput.Placeholder = "Thế giới tu tiên giả tưởng"
	settingInput.CharLimit = 200
	settingInput.Width = 60
	settingInput.PromptStyle = styles.InputPrompt
	settingInput.TextStyle = styles.InputText
	settingInput.SetValue(initial.Setting)

	characterInput := textinput.New()
	characterInput.Placeholder = "Lý Phàm, a farm boy with a hidden bloodline"
	characterInput.CharLimit = 200
	characterInput.Width = 60
	characterInput.PromptStyle = styles.InputPrompt
	characterInput.TextStyle = styles.InputText
	characterInput.SetValue(initial.MainCharacter)

	plotInput := textarea.New()
	plotInput.Placeholder = "A monk finds an ancient scroll that..."
	plotInput.SetWidth(60)
	plotInput.SetHeight(5)
	plotInput.CharLimit = 2000
	plotInput.SetValue(initial.PlotIdea)

	return &WizardModel{
		currentStep:    StepGenre,
		totalSteps:     totalSteps,
		result:         initial,
		genreList:      newChoiceList("Genre", types.Genres, initial.Genre),
		toneList:       newChoiceList("Tone", types.Tones, initial.Tone),
		povList:        newChoiceList("Point of View", types.POVs, initial.POV),
		settingInput:   settingInput,
		characterInput: characterInput,
		plotInput:      plotInput,
	}
}

// Init initializes the model.
func (m *WizardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m *WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentWidth := min(80, msg.Width-4)
		m.settingInput.Width = contentWidth - 4
		m.characterInput.Width = contentWidth - 4
		m.plotInput.SetWidth(contentWidth)
		m.genreList.SetWidth(contentWidth)
		m.toneList.SetWidth(contentWidth)
		m.povList.SetWidth(contentWidth)
		return m, nil

	case tea.KeyMsg:
		if model, cmd, handled := m.handleKeyMsg(msg); handled {
			return model, cmd
		}
	}

	return m, m.updateActive(msg)
}

// updateActive forwards msg to the component of the current step.
func (m *WizardModel) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.currentStep {
	case StepGenre:
		m.genreList, cmd = m.genreList.Update(msg)
	case StepTone:
		m.toneList, cmd = m.toneList.Update(msg)
	case StepPOV:
		m.povList, cmd = m.povList.Update(msg)
	case StepSetting:
		m.settingInput, cmd = m.settingInput.Update(msg)
	case StepMainCharacter:
		m.characterInput, cmd = m.characterInput.Update(msg)
	case StepPlotIdea:
		m.plotInput, cmd = m.plotInput.Update(msg)
	}
	return cmd
}

// handleKeyMsg processes navigation keys. Keys it does not handle go to the
// active component.
func (m *WizardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit, true

	case tea.KeyEnter:
		m.saveCurrentStep()
		if err := m.validateCurrentStep(); err != nil {
			m.err = err
			return m, nil, true
		}
		model, cmd := m.nextStep()
		return model, cmd, true

	case tea.KeyTab:
		// Keep the current value and move on
		if m.currentStep == StepPlotIdea {
			return m, nil, true
		}
		m.saveCurrentStep()
		model, cmd := m.nextStep()
		return model, cmd, true

	case tea.KeyShiftTab:
		model, cmd := m.previousStep()
		return model, cmd, true

	case tea.KeyBackspace:
		if m.canGoBack() {
			model, cmd := m.previousStep()
			return model, cmd, true
		}
	}

	return m, nil, false
}

// canGoBack determines if backspace should navigate back.
func (m *WizardModel) canGoBack() bool {
	switch m.currentStep {
	case StepGenre:
		return false
	case StepTone, StepPOV:
		return true
	case StepSetting:
		return m.settingInput.Value() == ""
	case StepMainCharacter:
		return m.characterInput.Value() == ""
	default:
		return m.plotInput.Value() == ""
	}
}

// nextStep advances to the next step.
func (m *WizardModel) nextStep() (tea.Model, tea.Cmd) {
	if m.currentStep >= WizardStep(m.totalSteps-1) {
		m.completed = true
		return m, tea.Quit
	}

	m.currentStep++
	m.err = nil
	return m, m.focusCurrentStep()
}

// previousStep goes back to the previous step.
func (m *WizardModel) previousStep() (tea.Model, tea.Cmd) {
	if m.currentStep > StepGenre {
		m.currentStep--
		m.err = nil
		return m, m.focusCurrentStep()
	}
	return m, nil
}

// focusCurrentStep focuses the appropriate input for the current step.
func (m *WizardModel) focusCurrentStep() tea.Cmd {
	m.settingInput.Blur()
	m.characterInput.Blur()
	m.plotInput.Blur()

	switch m.currentStep {
	case StepSetting:
		return m.settingInput.Focus()
	case StepMainCharacter:
		return m.characterInput.Focus()
	case StepPlotIdea:
		return m.plotInput.Focus()
	}
	return nil
}

// saveCurrentStep saves the current step's value to the result.
func (m *WizardModel) saveCurrentStep() {
	switch m.currentStep {
	case StepGenre:
		if item, ok := m.genreList.SelectedItem().(listItem); ok {
			m.result.Genre = string(item)
		}
	case StepTone:
		if item, ok := m.toneList.SelectedItem().(listItem); ok {
			m.result.Tone = string(item)
		}
	case StepPOV:
		if item, ok := m.povList.SelectedItem().(listItem); ok {
			m.result.POV = string(item)
		}
	case StepSetting:
		m.result.Setting = strings.TrimSpace(m.settingInput.Value())
	case StepMainCharacter:
		m.result.MainCharacter = strings.TrimSpace(m.characterInput.Value())
	case StepPlotIdea:
		m.result.PlotIdea = strings.TrimSpace(m.plotInput.Value())
	}
}

// validateCurrentStep validates the saved value of the current step.
func (m *WizardModel) validateCurrentStep() error {
	if m.currentStep == StepPlotIdea && m.result.PlotIdea == "" {
		return ErrPlotIdeaRequired
	}
	return nil
}

// View renders the wizard.
func (m *WizardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder

	sb.WriteString(styles.Header.Render("NOVELVIP - New Novel"))
	sb.WriteString("\n\n")

	sb.WriteString(m.renderProgress())
	sb.WriteString("\n\n")

	sb.WriteString(styles.Title.Render(fmt.Sprintf("Step %d: %s", m.currentStep+1, stepTitles[m.currentStep])))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render(stepHelps[m.currentStep]))
	sb.WriteString("\n\n")

	sb.WriteString(m.renderCurrentStep())
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(styles.ErrorText.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderNavigationHelp())

	return sb.String()
}

// renderProgress renders the progress indicator.
func (m *WizardModel) renderProgress() string {
	var parts []string
	for i := 0; i < m.totalSteps; i++ {
		switch {
		case i < int(m.currentStep):
			parts = append(parts, styles.SuccessText.Render("●"))
		case i == int(m.currentStep):
			parts = append(parts, styles.InfoText.Render("●"))
		default:
			parts = append(parts, styles.MutedText.Render("○"))
		}
	}
	return strings.Join(parts, " ")
}

// renderCurrentStep renders the input for the current step.
func (m *WizardModel) renderCurrentStep() string {
	switch m.currentStep {
	case StepGenre:
		return m.genreList.View()
	case StepTone:
		return m.toneList.View()
	case StepPOV:
		return m.povList.View()
	case StepSetting:
		return styles.FocusedBorder.Render(m.settingInput.View())
	case StepMainCharacter:
		return styles.FocusedBorder.Render(m.characterInput.View())
	case StepPlotIdea:
		return styles.FocusedBorder.Render(m.plotInput.View())
	}
	return ""
}

// renderNavigationHelp renders the navigation help text.
func (m *WizardModel) renderNavigationHelp() string {
	var parts []string

	if m.currentStep == StepPlotIdea {
		parts = append(parts, fmt.Sprintf("%s finish", styles.HelpKey.Render("Enter")))
	} else {
		parts = append(parts, fmt.Sprintf("%s confirm", styles.HelpKey.Render("Enter")))
		parts = append(parts, fmt.Sprintf("%s skip", styles.HelpKey.Render("Tab")))
	}
	if m.currentStep > StepGenre {
		parts = append(parts, fmt.Sprintf("%s back", styles.HelpKey.Render("Shift+Tab")))
	}
	parts = append(parts, fmt.Sprintf("%s cancel", styles.HelpKey.Render("Esc")))

	return styles.HelpDesc.Render(strings.Join(parts, "  "))
}

// Result returns the collected premise.
func (m *WizardModel) Result() types.NovelConfig {
	return m.result
}

// Completed returns true if the wizard completed successfully.
func (m *WizardModel) Completed() bool {
	return m.completed
}

// Cancelled returns true if the wizard was cancelled.
func (m *WizardModel) Cancelled() bool {
	return m.cancelled
}
