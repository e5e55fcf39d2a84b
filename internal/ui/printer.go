package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/musikremote/internal/discovery"
	"github.com/muurk/musikremote/internal/prefs"
	"github.com/muurk/musikremote/internal/server"
	"github.com/muurk/musikremote/internal/settings"
)

// Printer writes styled output to a writer
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the width used for boxes
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintSettings prints ws grouped by section under a header box
func (p *Printer) PrintSettings(ws settings.WorkingSet, choices settings.Choices) {
	p.Println(RenderSettings(ws, choices, p.width))
}

// PrintResult prints a result box
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}

// PrintServers prints discovered servers as a numbered list
func (p *Printer) PrintServers(servers []*discovery.Server) {
	if len(servers) == 0 {
		p.Println(StepNoteStyle.Render("  No musikcube servers found"))
		return
	}
	for i, s := range servers {
		version := s.Version
		if version == "" {
			version = "unknown version"
		}
		p.Println(fmt.Sprintf("  %s %s  %s",
			HeaderTitleStyle.UnsetPaddingLeft().Render(fmt.Sprintf("[%d]", i+1)),
			FieldValueStyle.Render(s.Instance),
			StepNoteStyle.Render(fmt.Sprintf("%s  ports %d/%d  %s", s.IP, s.MainPort, s.AudioPort, version)),
		))
	}
}

// PrintStatus prints a daemon status snapshot
func (p *Printer) PrintStatus(st *server.Status) {
	r := NewSuccessResult("Daemon running")
	r.AddDetail("Server", st.Server)
	r.AddDetail("Connection", string(st.Connection.State))
	if st.Connection.LastError != "" {
		r.AddDetail("Last error", st.Connection.LastError)
	}
	r.AddDetail("Stream upstream", st.Proxy.Upstream)
	bitrate := "off"
	if st.Proxy.BitrateKbps > 0 {
		bitrate = fmt.Sprintf("%d kbps", st.Proxy.BitrateKbps)
	}
	r.AddDetail("Transcoding", bitrate)
	r.AddDetail("Cache", fmt.Sprintf("%s  %d files", RenderUsageBar(st.Proxy.CacheBytes, st.Proxy.CacheLimit, p.width), st.Proxy.CacheFiles))
	r.AddDetail("Volume", fmt.Sprintf("%.0f%%", st.Volume*100))
	p.PrintResult(r)
}

// RenderSettings renders ws as a header box followed by one block per
// section. Enabled risky toggles are highlighted.
func RenderSettings(ws settings.WorkingSet, choices settings.Choices, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	dividerWidth := width - 6
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	header := HeaderBorderStyle(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render("MUSIKREMOTE SETTINGS"),
		HeaderCommandStyle.Render(settings.Summary(ws)),
		RenderHorizontalDivider(dividerWidth, "─"),
	))

	blocks := []string{header}
	for _, sec := range settings.Sections() {
		lines := []string{SectionTitleStyle.Render(sec.Title)}
		for _, key := range sec.Keys {
			f, _ := settings.Lookup(key)
			value := settings.FormatValue(f, ws[key], choices)
			style := FieldValueStyle
			if isRisky(key) && ws.Bool(key) {
				style = RiskyValueStyle
			}
			lines = append(lines, FieldLabelStyle.Render(f.Label)+style.Render(value))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// isRisky reports whether turning key on weakens the connection
func isRisky(key prefs.Key) bool {
	return settings.IsGated(key) || key == settings.KeyCertValidationDisabled
}
