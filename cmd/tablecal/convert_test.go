package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableHTML = `<table>
<tr><th>Date</th><th>9.00-10.50</th><th>2.00-3.00</th></tr>
<tr><td>06/01</td><td>Math</td><td>Lab</td></tr>
<tr><td>07/01</td><td>English</td><td>Art</td></tr>
</table>`

// resetFlags restores defaults between runs; cobra keeps flag state on the
// package-level commands.
func resetFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd, convertCmd, serveCmd)
	t.Cleanup(func() { resetFlags(rootCmd, convertCmd, serveCmd) })
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeInputs(t *testing.T) (cfgFile, htmlFile string) {
	t.Helper()
	dir := t.TempDir()
	cfgFile = filepath.Join(dir, "config.yaml")
	htmlFile = filepath.Join(dir, "table.html")
	require.NoError(t, os.WriteFile(htmlFile, []byte(tableHTML), 0o600))
	return cfgFile, htmlFile
}

func TestConvertHTMLPrintsJSON(t *testing.T) {
	cfgFile, htmlFile := writeInputs(t)

	out, err := runCLI(t, "convert", "--config", cfgFile, "--html", htmlFile)
	require.NoError(t, err)

	var events []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 4)
	assert.Equal(t, "Math", events[0]["title"])
	assert.True(t, strings.HasSuffix(events[0]["start"], "T09:00:00"))
	assert.True(t, strings.HasSuffix(events[1]["end"], "T15:00:00"))

	// First run writes a default config.
	_, err = os.Stat(cfgFile)
	assert.NoError(t, err)
}

func TestConvertHTMLPrintsICS(t *testing.T) {
	cfgFile, htmlFile := writeInputs(t)

	out, err := runCLI(t, "convert", "--config", cfgFile, "--html", htmlFile, "--ics")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Equal(t, 4, strings.Count(out, "BEGIN:VEVENT"))
}

func TestConvertNeedsInput(t *testing.T) {
	cfgFile, _ := writeInputs(t)
	_, err := runCLI(t, "convert", "--config", cfgFile)
	assert.Error(t, err)
}

func TestConvertFromICS(t *testing.T) {
	cfgFile, htmlFile := writeInputs(t)
	exported, err := runCLI(t, "convert", "--config", cfgFile, "--html", htmlFile, "--ics")
	require.NoError(t, err)

	icsFile := filepath.Join(filepath.Dir(htmlFile), "schedule.ics")
	require.NoError(t, os.WriteFile(icsFile, []byte(exported), 0o600))

	out, err := runCLI(t, "convert", "--config", cfgFile, "--from-ics", icsFile)
	require.NoError(t, err)

	var events []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 4)
	assert.Equal(t, "Math", events[0]["title"])
	assert.True(t, strings.HasSuffix(events[0]["start"], "T09:00:00"))
}

func TestConvertRejectsHTMLWithICSInput(t *testing.T) {
	cfgFile, htmlFile := writeInputs(t)
	_, err := runCLI(t, "convert", "--config", cfgFile, "--html", htmlFile, "--from-ics", htmlFile)
	assert.Error(t, err)
}
