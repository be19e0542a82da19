// Package tui provides an interactive BubbleTea interface for driving a
// guide.Guide one display-string token at a time, watching the allowed
// set, the next Instruction, and the rollback history update live.
//
// Layout:
//
//	┌─────────────────────────────────────┐
//	│  constrain  guide stepper            │  ← header
//	│  ❯ <token input>                     │  ← token input
//	│  ─────────────────────────────────   │  ← divider
//	│  state 4   ACTIVE                    │  ← status
//	│  next: Generate(a, bb, c)            │  ← next instruction
//	│  history:  a → bb → c                 │  ← consumed tokens
//	│  ─────────────────────────────────   │  ← divider
//	│  enter: advance  ctrl+z: rollback 1   │  ← status bar
//	└─────────────────────────────────────┘
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/screenager/constrain/guide"
	"github.com/screenager/constrain/vocab"
)

var (
	colorAccent = lipgloss.Color("#7C6AF7")
	colorDim    = lipgloss.Color("#555555")
	colorMuted  = lipgloss.Color("#888888")
	colorText   = lipgloss.Color("#DDDDDD")
	colorErr    = lipgloss.Color("#FF6B6B")
	colorGreen  = lipgloss.Color("#5AF078")

	sTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	sAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	sDim     = lipgloss.NewStyle().Foreground(colorDim)
	sMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	sErr     = lipgloss.NewStyle().Foreground(colorErr)
	sGreen   = lipgloss.NewStyle().Foreground(colorGreen)
	sDivider = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	sHint    = lipgloss.NewStyle().Foreground(colorDim).Background(lipgloss.Color("#111111"))
)

// Model is the BubbleTea application model driving one Guide.
type Model struct {
	guide   *guide.Guide
	vocab   *vocab.Vocabulary
	input   textinput.Model
	history []string
	err     error
	width   int
}

// New creates a guide-stepper Model for g, resolving display strings
// through v (vocab.DisplayForm) so the user types/sees the tokenizer's
// actual surface forms rather than raw ids.
func New(g *guide.Guide, v *vocab.Vocabulary) Model {
	ti := textinput.New()
	ti.Placeholder = "type the next token…"
	ti.Focus()
	ti.CharLimit = 128
	ti.Width = 50
	ti.PromptStyle = sAccent
	ti.Prompt = "❯ "
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	return Model{guide: g, vocab: v, input: ti}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = m.width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return m, tea.Quit
		case "ctrl+z":
			if err := m.guide.Rollback(1); err != nil {
				m.err = err
			} else if len(m.history) > 0 {
				m.history = m.history[:len(m.history)-1]
				m.err = nil
			}
			return m, nil
		case "ctrl+r":
			m.guide.Reset()
			m.history = nil
			m.err = nil
			return m, nil
		case "enter":
			token := strings.TrimSpace(m.input.Value())
			id, ok := m.resolveToken(token)
			if !ok {
				m.err = fmt.Errorf("unknown token %q", token)
				return m, nil
			}
			if err := m.guide.Advance(id); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.history = append(m.history, token)
			m.input.SetValue("")
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resolveToken finds a vocabulary id whose display form equals token, or
// the eos id for the literal "<eos>".
func (m Model) resolveToken(token string) (uint32, bool) {
	if token == "<eos>" {
		return m.guide.EOSID(), true
	}
	for _, tok := range m.vocab.Tokens() {
		if vocab.DisplayForm(tok) == token {
			ids, ok := m.vocab.Get(tok)
			if ok && len(ids) > 0 {
				return ids[0], true
			}
		}
	}
	return 0, false
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(sTitle.Render("constrain") + sDim.Render("  guide stepper") + "\n")
	b.WriteString(m.input.View() + "\n")
	b.WriteString(sDivider.Render(strings.Repeat("─", m.width)) + "\n")

	status := sGreen.Render(m.guide.Status().String())
	if m.guide.Status() == guide.Error {
		status = sErr.Render(m.guide.Status().String())
	}
	fmt.Fprintf(&b, "state %d   %s\n", m.guide.State(), status)

	if m.guide.Status() == guide.Active {
		instr, err := m.guide.NextInstruction()
		if err == nil {
			ids := make([]string, 0, len(instr.IDs))
			for _, id := range instr.IDs {
				ids = append(ids, m.displayFor(id))
			}
			sort.Strings(ids)
			kind := "Generate"
			if instr.Kind == guide.Write {
				kind = "Write"
			}
			fmt.Fprintf(&b, "next: %s(%s)\n", kind, strings.Join(ids, ", "))
		}
	}

	if len(m.history) > 0 {
		b.WriteString(sMuted.Render("history: ") + strings.Join(m.history, " → ") + "\n")
	}
	if m.err != nil {
		b.WriteString(sErr.Render("error: "+m.err.Error()) + "\n")
	}

	b.WriteString(sDivider.Render(strings.Repeat("─", m.width)) + "\n")
	b.WriteString(sHint.Render("enter: advance   ctrl+z: rollback 1   ctrl+r: reset   ctrl+q: quit"))
	return b.String()
}

func (m Model) displayFor(id uint32) string {
	tok, ok := m.vocab.GetTokenByID(id)
	if !ok {
		return "<eos>"
	}
	return vocab.DisplayForm(tok)
}
