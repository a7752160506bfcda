package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/portside/crosshost/boot"
	"github.com/portside/crosshost/dispatch"
	"github.com/portside/crosshost/emul"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	virtualStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	policyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Interactive view of the installed layer",
	Long: "Boots the layer, runs the guest startup, and opens an interactive\n" +
		"view of the identity triples, the substitution table, the intercepted\n" +
		"registrations, and the constructed windows. Channels can be invoked\n" +
		"in place. Prints a plain listing when stdout is not a terminal.",
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	rt, host, _, err := bootAndRunGuest(context.Background(), log)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(renderPanels(rt, host))
		return nil
	}

	p := tea.NewProgram(newInspectModel(rt, host), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type inspectState int

const (
	stateBrowse inspectState = iota
	stateInvoke
	stateResult
)

type inspectModel struct {
	rt     *boot.Runtime
	host   *emul.Host
	input  textinput.Model
	state  inspectState
	result string
	err    error
}

type invokeResultMsg struct {
	err    error
	result string
}

func newInspectModel(rt *boot.Runtime, host *emul.Host) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "channel name"
	ti.Prompt = "invoke: "
	ti.Width = 60
	return &inspectModel{rt: rt, host: host, input: ti}
}

func (m *inspectModel) Init() tea.Cmd { return nil }

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInvoke {
				return m, tea.Quit
			}

		case "i":
			if m.state == stateBrowse {
				m.state = stateInvoke
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}

		case "enter":
			switch m.state {
			case stateInvoke:
				m.input.Blur()
				return m, m.invoke
			case stateResult:
				m.state = stateBrowse
				m.result = ""
				m.err = nil
			}

		case "esc":
			m.input.Blur()
			m.state = stateBrowse
			m.result = ""
			m.err = nil
		}

	case invokeResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateResult
	}

	if m.state == stateInvoke {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *inspectModel) invoke() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := m.host.Invoke(ctx, m.input.Value(), nil)
	if err != nil {
		return invokeResultMsg{err: err}
	}
	return invokeResultMsg{result: fmt.Sprintf("%v", res)}
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("crosshost inspector"))
	b.WriteString("\n\n")
	b.WriteString(renderPanels(m.rt, m.host))
	b.WriteString("\n")

	switch m.state {
	case stateInvoke:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter invoke • esc cancel"))

	case stateResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter back • q quit"))

	default:
		b.WriteString(helpStyle.Render("i invoke channel • q quit"))
	}

	return b.String()
}

// renderPanels formats the inspectable state of the booted layer. It backs
// both the TUI and the non-terminal fallback.
func renderPanels(rt *boot.Runtime, host *emul.Host) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Identity"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  real     %s\n", rt.Identity().Real())
	fmt.Fprintf(&b, "  virtual  %s\n", virtualStyle.Render(rt.Identity().Virtual().String()))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Substitutions"))
	b.WriteString("\n")
	for _, e := range rt.Registry().Entries() {
		if e.Substitute != "" {
			fmt.Fprintf(&b, "  %-24s %s -> %s\n", e.Pattern, e.Action, e.Substitute)
		} else {
			fmt.Fprintf(&b, "  %-24s %s\n", e.Pattern, e.Action)
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Registrations"))
	b.WriteString("\n")
	records := rt.Dispatch().Records()
	sort.Slice(records, func(i, j int) bool {
		if records[i].Surface != records[j].Surface {
			return records[i].Surface < records[j].Surface
		}
		return records[i].Channel < records[j].Channel
	})
	for _, r := range records {
		policy := r.Policy
		if policy != dispatch.PolicyPassthrough {
			policy = policyStyle.Render(policy)
		}
		fmt.Fprintf(&b, "  %-8s %-56s %s\n", r.Surface, r.Channel, policy)
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Windows"))
	b.WriteString("\n")
	for _, w := range host.StockWindows().Created() {
		fmt.Fprintf(&b, "  %-12q frame=%-5v titleBarStyle=%-8q menuBar=%v\n",
			w.Opts.Title, w.Opts.Frame != nil && *w.Opts.Frame, w.Opts.TitleBarStyle, w.MenuVisible)
	}

	return b.String()
}
