package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

func testUI(input string) (*UI, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(strings.NewReader(input), out), out
}

func devices(n int) []model.Device {
	var out []model.Device
	for i := 0; i < n; i++ {
		out = append(out, model.Device{Name: fmt.Sprintf("dev%02d", i), Host: "10.0.0.1"})
	}
	return out
}

func TestNewDevicesRendersTableUpToTen(t *testing.T) {
	u, out := testUI("")
	u.NewDevices(devices(3))

	assert.Contains(t, out.String(), "New machines added")
	assert.Contains(t, out.String(), "dev02")
}

func TestNewDevicesCountOnlyAboveTen(t *testing.T) {
	u, out := testUI("")
	u.NewDevices(devices(11))

	assert.Contains(t, out.String(), "11 new machines added")
	assert.NotContains(t, out.String(), "dev00")
}

func TestNewDevicesSilentWhenEmpty(t *testing.T) {
	u, out := testUI("")
	u.NewDevices(nil)

	assert.Empty(t, out.String())
}

func TestSelectIndexReasksOnInvalidInput(t *testing.T) {
	u, out := testUI("abc\n0\n5\n3\n")

	index, ok := u.SelectIndex(4)

	assert.True(t, ok)
	assert.Equal(t, 2, index)
	assert.Contains(t, out.String(), "Please enter a valid number.")
	assert.Contains(t, out.String(), "Invalid number. Please try again.")
}

func TestSelectIndexQuit(t *testing.T) {
	u, _ := testUI("q\n")
	_, ok := u.SelectIndex(4)
	assert.False(t, ok)
}

func TestSelectIndexEOFCancels(t *testing.T) {
	u, _ := testUI("")
	_, ok := u.SelectIndex(4)
	assert.False(t, ok)
}

func TestConfirmDefaultsToYes(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"whatever\n", false},
	}
	for _, tt := range tests {
		u, _ := testUI(tt.input)
		assert.Equal(t, tt.want, u.Confirm("Refresh?"), "input %q", tt.input)
	}
}

func TestConfirmConnect(t *testing.T) {
	u, _ := testUI("\n")
	assert.True(t, u.ConfirmConnect())

	u, _ = testUI("n\n")
	assert.False(t, u.ConfirmConnect())
}

func TestServiceIcon(t *testing.T) {
	assert.Equal(t, "\U0001FA9F ", serviceIcon([]string{"SSH", "RDP"}))
	assert.Equal(t, "\U0001F427 ", serviceIcon([]string{"ssh"}))
	assert.Equal(t, "", serviceIcon(nil))
}
