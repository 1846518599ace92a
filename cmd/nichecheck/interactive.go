package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/niche"
	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/witcheck"
)

type interactiveModel struct {
	err      error
	verdict  error
	schema   *witcheck.Schema
	desc     *niche.Descriptor
	filename string
	types    []string
	input    textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateSelectType modelState = iota
	stateInputImage
)

func newInteractiveModel(filename string, schema *witcheck.Schema) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "hex bytes, e.g. 01 00 00 00"
	ti.Prompt = "image: "
	ti.Width = 48
	return &interactiveModel{
		filename: filename,
		schema:   schema,
		types:    schema.Names(),
		input:    ti,
		state:    stateSelectType,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateSelectType {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down", "j":
			if m.state == stateSelectType && m.selected < len(m.types)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.state == stateSelectType && len(m.types) > 0 {
				m.desc, m.err = m.schema.Descriptor(m.types[m.selected])
				if m.err == nil {
					m.state = stateInputImage
					m.input.SetValue("")
					m.verdict = nil
					return m, m.input.Focus()
				}
			}
			return m, nil

		case "esc":
			if m.state == stateInputImage {
				m.state = stateSelectType
				m.input.Blur()
				m.desc = nil
			}
			m.err = nil
			return m, nil
		}
	}

	if m.state != stateInputImage {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.verdict = check(m.desc, m.input.Value())
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("niche check"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectType:
		if len(m.types) == 0 {
			b.WriteString("No named types in this package.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			return b.String()
		}
		b.WriteString("Select a type:\n\n")
		for i, name := range m.types {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + name))
			} else {
				b.WriteString("  " + typeStyle.Render(name))
			}
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter check • q quit"))

	case stateInputImage:
		b.WriteString(typeStyle.Render(m.desc.String()))
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(m.renderVerdict())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("type bytes to check • esc back • ctrl+c quit"))
	}

	return b.String()
}

func (m *interactiveModel) renderVerdict() string {
	switch {
	case m.input.Value() == "":
		return helpStyle.Render(fmt.Sprintf("%d bytes expected", m.desc.Size))
	case m.verdict == nil:
		return validStyle.Render("valid " + m.desc.Name)
	case errors.IsValidation(m.verdict):
		return errorStyle.Render("invalid: " + m.verdict.Error())
	default:
		return helpStyle.Render(m.verdict.Error())
	}
}

func runInteractive(filename string, schema *witcheck.Schema) error {
	p := tea.NewProgram(newInteractiveModel(filename, schema), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
