package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/PAPAMICA/wallix-ssh/internal/history"
	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	// One style per device-table column: name, host, services, tags,
	// description, last connection.
	columnStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	}
	indexStyle = lipgloss.NewStyle().Faint(true)
)

// UI owns all terminal interaction: tables and prompts on out, answers
// read line-by-line from in. Prompt loops re-ask on invalid input and
// treat EOF as a cancel.
type UI struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *UI {
	return &UI{in: bufio.NewReader(in), out: out}
}

// Title prints a panel-style section heading.
func (u *UI) Title(text string) {
	fmt.Fprintln(u.out, titleStyle.Render(text))
}

// serviceIcon mirrors the icons users know from the device tables: windows
// for RDP targets, penguin otherwise when SSH is offered.
func serviceIcon(services []string) string {
	for _, s := range services {
		if strings.EqualFold(s, "RDP") {
			return "\U0001FA9F "
		}
	}
	for _, s := range services {
		if strings.EqualFold(s, "SSH") {
			return "\U0001F427 "
		}
	}
	return ""
}

func newTable(indexed bool, headers ...string) *table.Table {
	if indexed {
		headers = append([]string{"#"}, headers...)
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Faint(true)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if indexed {
				if col == 0 {
					return indexStyle.Padding(0, 1)
				}
				col--
			}
			if col < len(columnStyles) {
				return columnStyles[col].Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

func deviceRow(d model.Device) []string {
	return []string{
		serviceIcon(d.Services) + d.Name,
		d.Host,
		strings.Join(d.Services, ", "),
		strings.Join(model.TagStrings(d.Tags), ", "),
		d.Description,
	}
}

// DeviceTable renders the device list.
func (u *UI) DeviceTable(devices []model.Device) {
	t := newTable(false, "Name", "Host", "Services", "Tags", "Description")
	for _, d := range devices {
		t.Row(deviceRow(d)...)
	}
	fmt.Fprintln(u.out, t)
}

// DeviceTableIndexed renders the device list with a selection column.
func (u *UI) DeviceTableIndexed(devices []model.Device) {
	t := newTable(true, "Name", "Host", "Services", "Tags", "Description")
	for i, d := range devices {
		t.Row(append([]string{strconv.Itoa(i + 1)}, deviceRow(d)...)...)
	}
	fmt.Fprintln(u.out, t)
}

// HistoryTable renders recent connections with a selection column.
func (u *UI) HistoryTable(entries []history.Entry) {
	t := newTable(true, "Name", "Host", "Services", "Tags", "Description", "Last connection")
	for i, e := range entries {
		t.Row(
			strconv.Itoa(i+1),
			serviceIcon(e.Services)+e.Name,
			e.Host,
			strings.Join(e.Services, ", "),
			strings.Join(e.Tags, ", "),
			e.Description,
			e.Timestamp.Local().Format("2006-01-02 15:04"),
		)
	}
	fmt.Fprintln(u.out, t)
}

// NewDevices announces devices newly seen by a cache refresh. Above ten,
// only the count is shown.
func (u *UI) NewDevices(devices []model.Device) {
	if len(devices) == 0 {
		return
	}
	if len(devices) > 10 {
		fmt.Fprintf(u.out, "%d new machines added\n", len(devices))
		return
	}
	u.Title("New machines added")
	u.DeviceTable(devices)
}

func (u *UI) readLine() (string, bool) {
	line, err := u.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// SelectIndex prompts for a 1-based choice among n entries, re-asking on
// invalid input. Returns false when the user quits or input ends.
func (u *UI) SelectIndex(n int) (int, bool) {
	fmt.Fprintln(u.out, promptStyle.Render("Enter the number of the machine to connect to (or 'q' to quit)"))
	for {
		fmt.Fprint(u.out, "Choice: ")
		line, ok := u.readLine()
		if !ok || strings.EqualFold(line, "q") {
			return 0, false
		}
		index, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(u.out, errorStyle.Render("Please enter a valid number."))
			continue
		}
		if index < 1 || index > n {
			fmt.Fprintln(u.out, errorStyle.Render("Invalid number. Please try again."))
			continue
		}
		return index - 1, true
	}
}

// Confirm asks a yes/no question; empty input means yes.
func (u *UI) Confirm(question string) bool {
	fmt.Fprintln(u.out, promptStyle.Render(question+" (y/n)"))
	line, ok := u.readLine()
	if !ok {
		return false
	}
	return line == "" || strings.EqualFold(line, "y")
}

// ConfirmConnect is the single-result prompt: Enter connects, 'n' cancels.
func (u *UI) ConfirmConnect() bool {
	fmt.Fprintln(u.out, promptStyle.Render("Press Enter to connect or 'n' to cancel"))
	line, ok := u.readLine()
	if !ok {
		return false
	}
	return !strings.EqualFold(line, "n")
}

// Password reads a password without echo when stdin is a terminal, falling
// back to a plain line read otherwise.
func (u *UI) Password(prompt string) (string, error) {
	fmt.Fprint(u.out, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(u.out)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, ok := u.readLine()
	if !ok {
		return "", io.EOF
	}
	return line, nil
}
