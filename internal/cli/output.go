package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Output handles rendering to the terminal with optional JSON mode
// and color support.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates an Output from the command's flags.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && isTerminal(),
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// JSONMode reports whether the output is in JSON mode.
func (o *Output) JSONMode() bool {
	return o.jsonMode
}

// JSON writes the value as indented JSON.
func (o *Output) JSON(v interface{}) error {
	enc := json.NewEncoder(o.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Print writes plain text.
func (o *Output) Print(s string) {
	fmt.Fprint(o.writer, s)
}

// Println writes a line of plain text.
func (o *Output) Println(s string) {
	fmt.Fprintln(o.writer, s)
}

// Printf writes formatted text.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success writes a green success message.
func (o *Output) Success(s string) {
	o.colored(color.FgGreen, "✓ "+s)
}

// Error writes a red error message.
func (o *Output) Error(s string) {
	o.colored(color.FgRed, "✗ "+s)
}

// Warning writes a yellow warning message.
func (o *Output) Warning(s string) {
	o.colored(color.FgYellow, "! "+s)
}

// Info writes a cyan informational message.
func (o *Output) Info(s string) {
	o.colored(color.FgCyan, s)
}

// Bold writes bold text.
func (o *Output) Bold(s string) {
	if o.colorEnabled {
		fmt.Fprintln(o.writer, color.New(color.Bold).Sprint(s))
		return
	}
	fmt.Fprintln(o.writer, s)
}

// Bullish writes text in green.
func (o *Output) Bullish(s string) {
	o.colored(color.FgGreen, s)
}

// Bearish writes text in red.
func (o *Output) Bearish(s string) {
	o.colored(color.FgRed, s)
}

func (o *Output) colored(attr color.Attribute, s string) {
	if o.colorEnabled {
		fmt.Fprintln(o.writer, color.New(attr).Sprint(s))
		return
	}
	fmt.Fprintln(o.writer, s)
}

// ColoredString returns s wrapped in the given color when colors are on.
func (o *Output) ColoredString(attr color.Attribute, s string) string {
	if o.colorEnabled {
		return color.New(attr).Sprint(s)
	}
	return s
}
