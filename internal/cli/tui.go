package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/insetkit/pkg/scenario"
)

var (
	frameActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	frameIdleStyle   = lipgloss.NewStyle().Foreground(colorDim)
	frameDrawnStyle  = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// PreviewModel - Interactive frame stepper
// =============================================================================

// PreviewModel is the bubbletea model stepping through a scenario. Frames are
// replayed once, on first visit; moving back shows the recorded step.
type PreviewModel struct {
	Name     string
	Replayer *scenario.Replayer
	Steps    []scenario.Step
	Cursor   int
	Failed   map[string]bool
}

// NewPreviewModel creates a preview that has replayed the first frame.
func NewPreviewModel(name string, r *scenario.Replayer, failed map[string]bool) PreviewModel {
	m := PreviewModel{Name: name, Replayer: r, Failed: failed}
	if step, ok := r.Next(); ok {
		m.Steps = append(m.Steps, step)
	}
	return m
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "right", "l", " ":
			if m.Cursor < len(m.Steps)-1 {
				m.Cursor++
			} else if step, ok := m.Replayer.Next(); ok {
				m.Steps = append(m.Steps, step)
				m.Cursor++
			}
		case "end", "G":
			for {
				step, ok := m.Replayer.Next()
				if !ok {
					break
				}
				m.Steps = append(m.Steps, step)
			}
			m.Cursor = len(m.Steps) - 1
		}
	}
	return m, nil
}

func (m PreviewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Preview " + m.Name))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ step  end last frame  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.timeline())
	b.WriteString("\n\n")

	if len(m.Steps) == 0 {
		b.WriteString(StyleDim.Render("  no frames"))
		return b.String()
	}
	step := m.Steps[m.Cursor]
	f := step.Frame
	zoom := "none"
	if f.Zoom != nil {
		zoom = fmt.Sprintf("k=%g (%g, %g)", f.Zoom.K, f.Zoom.TX, f.Zoom.TY)
	}
	fmt.Fprintf(&b, "  %s %s   %s %d   %s %s\n",
		StyleDim.Render("zoom"), StyleValue.Render(zoom),
		StyleDim.Render("annotations"), len(f.Annotations),
		StyleDim.Render("pass"), passLabel(step.Drawn))
	b.WriteString(snapshotStats(step.Snapshot))
	b.WriteString("\n")
	if len(step.Snapshot.Placements) > 0 {
		b.WriteString(placementTable(step.Snapshot.Placements, m.Failed))
		b.WriteString("\n")
	}
	return b.String()
}

// timeline renders one marker per frame: visited frames that ran a pass are
// filled, the current frame is highlighted.
func (m PreviewModel) timeline() string {
	markers := make([]string, 0, m.Replayer.Len())
	for i := range m.Replayer.Len() {
		switch {
		case i == m.Cursor:
			markers = append(markers, frameActiveStyle.Render("◆"))
		case i < len(m.Steps) && m.Steps[i].Drawn:
			markers = append(markers, frameDrawnStyle.Render("●"))
		default:
			markers = append(markers, frameIdleStyle.Render("○"))
		}
	}
	return "  " + strings.Join(markers, " ") + StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, m.Replayer.Len()))
}

func passLabel(drawn bool) string {
	if drawn {
		return frameDrawnStyle.Render("ran")
	}
	return frameIdleStyle.Render("waiting")
}

// =============================================================================
// Command
// =============================================================================

// previewCommand creates the preview command, an interactive frame stepper.
func (c *CLI) previewCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "preview [scenario.yaml]",
		Short: "Step through a scenario frame by frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], mode)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "positioning mode: center, gallery (default: from config)")
	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input, mode string) error {
	s, err := scenario.Load(input)
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", input, err)
	}
	opts, err := c.options(mode)
	if err != nil {
		return err
	}
	r, err := scenario.NewReplayer(ctx, s, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	name := s.Name
	if name == "" {
		name = input
	}
	if len(s.Frames) == 0 {
		printInfo("%s has no frames", name)
		return nil
	}
	_, err = tea.NewProgram(NewPreviewModel(name, r, failedIDs(s)), tea.WithContext(ctx)).Run()
	return err
}
