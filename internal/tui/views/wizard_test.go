package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

func init() {
	// Disable colors for consistent test output
	lipgloss.SetColorProfile(termenv.Ascii)
}

func newTestWizard(t *testing.T, initial types.NovelConfig) *WizardModel {
	t.Helper()
	w := NewWizard(initial)
	model, _ := w.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return model.(*WizardModel)
}

func press(w *WizardModel, keyType tea.KeyType) (*WizardModel, tea.Cmd) {
	model, cmd := w.Update(tea.KeyMsg{Type: keyType})
	return model.(*WizardModel), cmd
}

func typeText(w *WizardModel, s string) *WizardModel {
	for _, r := range s {
		model, _ := w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		w = model.(*WizardModel)
	}
	return w
}

// ============================================================================
// Wizard Creation Tests
// ============================================================================

func TestNewWizard(t *testing.T) {
	w := NewWizard(types.DefaultNovelConfig())

	assert.Equal(t, StepGenre, w.currentStep)
	assert.Equal(t, totalSteps, w.totalSteps)
	assert.False(t, w.Completed())
	assert.False(t, w.Cancelled())
	assert.Nil(t, w.err)
	assert.Equal(t, types.DefaultNovelConfig(), w.Result())
}

func TestNewWizard_PreselectsInitialChoices(t *testing.T) {
	initial := types.DefaultNovelConfig()
	initial.Genre = "Kinh Dị"
	initial.Tone = "Bi ai"

	w := NewWizard(initial)

	assert.Equal(t, listItem("Kinh Dị"), w.genreList.SelectedItem())
	assert.Equal(t, listItem("Bi ai"), w.toneList.SelectedItem())
	assert.Equal(t, listItem(initial.POV), w.povList.SelectedItem())
	assert.Equal(t, initial.Setting, w.settingInput.Value())
}

// ============================================================================
// Navigation Tests
// ============================================================================

func TestWizardNavigation_AllSteps(t *testing.T) {
	w := newTestWizard(t, types.DefaultNovelConfig())

	steps := []WizardStep{StepGenre, StepTone, StepPOV, StepSetting, StepMainCharacter, StepPlotIdea}
	for i, expected := range steps {
		assert.Equal(t, expected, w.currentStep, "step %d", i)
		if i < len(steps)-1 {
			w, _ = press(w, tea.KeyTab)
		}
	}

	// Tab does not finish on the last step
	w, _ = press(w, tea.KeyTab)
	assert.Equal(t, StepPlotIdea, w.currentStep)
	assert.False(t, w.Completed())
}

func TestWizardNavigation_ListSelection(t *testing.T) {
	w := newTestWizard(t, types.DefaultNovelConfig())
	require.Equal(t, types.Genres[0], w.result.Genre)

	// Arrow keys reach the list
	w, _ = press(w, tea.KeyDown)
	w, _ = press(w, tea.KeyEnter)

	assert.Equal(t, StepTone, w.currentStep)
	assert.Equal(t, types.Genres[1], w.Result().Genre)
}

func TestWizardNavigation_Back(t *testing.T) {
	tests := []struct {
		name    string
		step    WizardStep
		keyType tea.KeyType
		want    WizardStep
	}{
		{"backspace on list", StepTone, tea.KeyBackspace, StepGenre},
		{"backspace at first step", StepGenre, tea.KeyBackspace, StepGenre},
		{"shift+tab", StepPOV, tea.KeyShiftTab, StepTone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWizard(t, types.DefaultNovelConfig())
			w.currentStep = tt.step

			w, _ = press(w, tt.keyType)
			assert.Equal(t, tt.want, w.currentStep)
		})
	}
}

func TestWizardNavigation_BackspaceEditsNonEmptyInput(t *testing.T) {
	w := newTestWizard(t, types.DefaultNovelConfig())
	w.currentStep = StepMainCharacter
	w.focusCurrentStep()
	w = typeText(w, "Lý")

	w, _ = press(w, tea.KeyBackspace)

	assert.Equal(t, StepMainCharacter, w.currentStep)
	assert.Equal(t, "L", w.characterInput.Value())
}

func TestWizardNavigation_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		keyType tea.KeyType
	}{
		{"Ctrl+C cancels", tea.KeyCtrlC},
		{"Esc cancels", tea.KeyEsc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWizard(t, types.DefaultNovelConfig())

			w, cmd := press(w, tt.keyType)

			assert.True(t, w.Cancelled())
			assert.NotNil(t, cmd, "should return quit command")
		})
	}
}

// ============================================================================
// Input Tests
// ============================================================================

func TestWizard_TypingReachesInputs(t *testing.T) {
	w := newTestWizard(t, types.NovelConfig{})
	for w.currentStep < StepSetting {
		w, _ = press(w, tea.KeyEnter)
	}

	w = typeText(w, "Núi Thanh Sơn")
	w, _ = press(w, tea.KeyEnter)
	w = typeText(w, "Tiểu Minh")
	w, _ = press(w, tea.KeyEnter)
	w = typeText(w, "Một nhà sư tìm thấy cuộn giấy cổ")
	w, cmd := press(w, tea.KeyEnter)

	require.True(t, w.Completed())
	assert.NotNil(t, cmd)

	got := w.Result()
	assert.Equal(t, types.Genres[0], got.Genre)
	assert.Equal(t, types.Tones[0], got.Tone)
	assert.Equal(t, types.POVs[0], got.POV)
	assert.Equal(t, "Núi Thanh Sơn", got.Setting)
	assert.Equal(t, "Tiểu Minh", got.MainCharacter)
	assert.Equal(t, "Một nhà sư tìm thấy cuộn giấy cổ", got.PlotIdea)
}

// ============================================================================
// Validation Tests
// ============================================================================

func TestWizardValidation_PlotIdeaRequired(t *testing.T) {
	w := newTestWizard(t, types.DefaultNovelConfig())
	w.currentStep = StepPlotIdea
	w.focusCurrentStep()
	w = typeText(w, "   ")

	w, _ = press(w, tea.KeyEnter)

	assert.False(t, w.Completed())
	assert.ErrorIs(t, w.err, ErrPlotIdeaRequired)
	assert.Contains(t, w.View(), "core plot idea is required")

	// The error clears once the step is completed
	w = typeText(w, "A monk finds a scroll")
	w, _ = press(w, tea.KeyEnter)
	assert.True(t, w.Completed())
	assert.Equal(t, "A monk finds a scroll", w.Result().PlotIdea)
}

// ============================================================================
// View Tests
// ============================================================================

func TestWizardView(t *testing.T) {
	w := NewWizard(types.DefaultNovelConfig())
	assert.Equal(t, "Initializing...", w.View())

	w = newTestWizard(t, types.DefaultNovelConfig())
	view := w.View()

	assert.Contains(t, view, "NOVELVIP - New Novel")
	assert.Contains(t, view, "Step 1: Genre")
	assert.Contains(t, view, types.Genres[0])
	assert.Contains(t, view, "Esc")
	assert.NotContains(t, view, "Shift+Tab")

	w, _ = press(w, tea.KeyTab)
	assert.Contains(t, w.View(), "Step 2: Tone")
	assert.Contains(t, w.View(), "Shift+Tab")
}
