// Package tui is the terminal front end of the annotator. The active image
// is drawn with half-block cells; the mouse draws rectangles and a one-line
// prompt asks for the class name.
package tui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"

	"github.com/menta2k/image-labeler/pkg/annotator"
	"github.com/menta2k/image-labeler/pkg/capture"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/types"
)

const (
	headerRows = 1
	footerRows = 2

	defaultCols = 80
	defaultRows = 24
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	levelStyles = map[annotator.Level]lipgloss.Style{
		annotator.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		annotator.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		annotator.Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}

	dragColor = color.NRGBA{R: 255, G: 64, B: 64, A: 255}
)

// Model is the bubbletea model driving an annotator.Controller
type Model struct {
	ctx   context.Context
	ctl   *annotator.Controller
	notes *annotator.Recorder

	cols, rows int

	// preview of the active image with stored boxes drawn; sx, sy map
	// preview pixels back to image pixels
	base   *image.NRGBA
	sx, sy float64

	status    annotator.Notice
	hasStatus bool

	prompting bool
	input     string
}

// New creates a Model. notes must be the Notifier the controller was built with.
func New(ctx context.Context, ctl *annotator.Controller, notes *annotator.Recorder) *Model {
	m := &Model{
		ctx:   ctx,
		ctl:   ctl,
		notes: notes,
		cols:  defaultCols,
		rows:  defaultRows,
	}
	m.drain()
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.refresh()
	case tea.KeyMsg:
		if m.prompting {
			m.handlePromptKey(msg)
		} else {
			cmd = m.handleKey(msg)
		}
	case tea.MouseMsg:
		if !m.prompting {
			m.handleMouse(msg)
		}
	}
	m.drain()
	return m, cmd
}

func (m *Model) handleKey(k tea.KeyMsg) tea.Cmd {
	switch k.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "n", "right":
		_, _ = m.ctl.Next()
		m.refresh()
	case "p", "left":
		_, _ = m.ctl.Prev()
		m.refresh()
	}
	return nil
}

func (m *Model) handlePromptKey(k tea.KeyMsg) {
	switch k.Type {
	case tea.KeyEsc:
		m.answer("", false)
	case tea.KeyEnter:
		m.answer(m.input, true)
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(k.Runes)
	}
}

func (m *Model) answer(class string, ok bool) {
	m.prompting = false
	m.input = ""
	if res, err := m.ctl.Label(class, ok); err == nil && res.Outcome == capture.Committed {
		m.refresh()
	}
}

func (m *Model) handleMouse(ev tea.MouseMsg) {
	p, inside := m.toImage(ev.X, ev.Y)
	switch ev.Action {
	case tea.MouseActionPress:
		if ev.Button == tea.MouseButtonLeft && inside {
			m.ctl.PointerDown(p)
		}
	case tea.MouseActionMotion:
		m.ctl.PointerMove(p)
	case tea.MouseActionRelease:
		if m.ctl.State() != capture.Dragging {
			return
		}
		_, _ = m.ctl.PointerUp(m.ctx, p)
		if m.ctl.State() == capture.AwaitingLabel {
			m.prompting = true
			m.input = ""
		}
	}
}

// toImage maps a terminal cell to image coordinates, clamped to the image.
// Each cell covers one preview column and two preview rows.
func (m *Model) toImage(x, y int) (types.Point, bool) {
	if m.base == nil {
		return types.Point{}, false
	}
	b := m.base.Bounds()
	row := y - headerRows
	inside := x >= 0 && x < b.Dx() && row >= 0 && row < (b.Dy()+1)/2

	info, _ := m.ctl.Current()
	px := (float64(x) + 0.5) * m.sx
	py := float64(row*2+1) * m.sy
	return types.Point{
		X: math.Max(0, math.Min(px, float64(info.Width))),
		Y: math.Max(0, math.Min(py, float64(info.Height))),
	}, inside
}

// refresh rebuilds the preview after the image, its labels or the terminal size changed
func (m *Model) refresh() {
	img := m.ctl.Image()
	if img == nil {
		m.base = nil
		return
	}
	if boxes, err := m.ctl.Labels(); err == nil && len(boxes) > 0 {
		img = processing.CreateOverlay(img, boxes)
	}

	maxW := m.cols
	maxH := 2 * (m.rows - headerRows - footerRows)
	fitted := imaging.Clone(processing.Fit(img, maxW, maxH))
	fb := fitted.Bounds()
	if fb.Dx() == 0 || fb.Dy() == 0 {
		m.base = nil
		return
	}

	ib := img.Bounds()
	m.base = fitted
	m.sx = float64(ib.Dx()) / float64(fb.Dx())
	m.sy = float64(ib.Dy()) / float64(fb.Dy())
}

func (m *Model) drain() {
	notes := m.notes.Drain()
	if len(notes) == 0 {
		return
	}
	m.status = notes[len(notes)-1]
	m.hasStatus = true
}

// Prompting reports whether the class-name prompt is open
func (m *Model) Prompting() bool { return m.prompting }

// Status returns the last notice shown in the status line
func (m *Model) Status() (annotator.Notice, bool) { return m.status, m.hasStatus }

func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title()))
	sb.WriteByte('\n')

	if m.base != nil {
		sb.WriteString(renderHalfBlocks(m.frame()))
	} else {
		sb.WriteString(helpStyle.Render("no image loaded"))
		sb.WriteByte('\n')
	}

	switch {
	case m.prompting:
		sb.WriteString(promptStyle.Render("Class name: ") + m.input + "_")
	case m.hasStatus:
		sb.WriteString(levelStyles[m.status.Level].Render(m.status.Title + ": " + m.status.Text))
	}
	sb.WriteByte('\n')
	if m.prompting {
		sb.WriteString(helpStyle.Render("[enter] Save  [esc] Cancel"))
	} else {
		sb.WriteString(helpStyle.Render("[drag] Draw box  [n] Next  [p] Prev  [q] Quit"))
	}
	return sb.String()
}

func (m *Model) title() string {
	info, ok := m.ctl.Current()
	if !ok {
		return fmt.Sprintf("image-labeler  %s  pending: %d", m.ctl.Folder(), len(m.ctl.Pending()))
	}
	return fmt.Sprintf("image-labeler  %s (%dx%d)  pending: %d", info.Name, info.Width, info.Height, len(m.ctl.Pending()))
}

// frame returns the preview with the rectangle in progress drawn on it
func (m *Model) frame() *image.NRGBA {
	r, ok := m.ctl.Rect()
	if !ok {
		return m.base
	}
	out := imaging.Clone(m.base)
	processing.DrawRect(out, image.Rect(
		int(r.Anchor.X/m.sx), int(r.Anchor.Y/m.sy),
		int(r.Current.X/m.sx)+1, int(r.Current.Y/m.sy)+1,
	), dragColor, 1)
	return out
}

// renderHalfBlocks draws two pixel rows per line using the upper half block
// with the top pixel as foreground and the bottom one as background
func renderHalfBlocks(img *image.NRGBA) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hex(img.NRGBAAt(x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(hex(img.NRGBAAt(x, y+1)))
			}
			sb.WriteString(style.Render("▀"))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func hex(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
