package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Color codes using ANSI escape sequences
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// colorsEnabled determines if color output is enabled
var colorsEnabled = true

func init() {
	// Disable colors if NO_COLOR environment variable is set
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
	}
}

// colorize applies color to text, with a fallback if colors are disabled
func colorize(text, color string) string {
	if !colorsEnabled {
		return text
	}
	return color + text + colorReset
}

// Success prints a success message with a green checkmark
func Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	icon := colorize("✓", colorGreen)
	fmt.Printf("%s %s\n", icon, msg)
}

// Failure prints a failure message with a red X to stderr
func Failure(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	icon := colorize("✗", colorRed)
	fmt.Fprintf(os.Stderr, "%s %s\n", icon, msg)
}

// Warning prints a warning message with a yellow warning sign
func Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	icon := colorize("⚠", colorYellow)
	fmt.Printf("%s Warning: %s\n", icon, msg)
}

// Info prints an informational message
func Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(msg)
}

// Field prints a labeled field (key-value pair)
func Field(label, value string) {
	labelFormatted := fmt.Sprintf("%-12s", label+":")
	fmt.Printf("%s %s\n", colorize(labelFormatted, colorGray), value)
}

// JSON marshals and prints data as indented JSON
func JSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatBytes formats byte sizes in human-readable format (B, KB, MB, etc.)
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// StatusIcon returns a colored status icon based on status string
func StatusIcon(status string) string {
	switch strings.ToLower(status) {
	case "ok", "verified", "fetched":
		return colorize("✓", colorGreen)
	case "absent", "stale":
		return colorize("⚠", colorYellow)
	case "mismatch", "failed":
		return colorize("✗", colorRed)
	default:
		return "•"
	}
}

// ConfirmPrompt asks the user for confirmation (y/n)
// Returns true if user confirms, false otherwise
func ConfirmPrompt(message string) bool {
	fmt.Printf("%s [y/N]: ", message)
	var response string
	_, _ = fmt.Scanln(&response) // Ignore error, treat as no confirmation if failed
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// Table represents a simple text table
type Table struct {
	Headers []string
	Rows    [][]string
	writer  io.Writer
}

// NewTable creates a new table with the given headers
func NewTable(headers ...string) *Table {
	return &Table{
		Headers: headers,
		Rows:    [][]string{},
		writer:  os.Stdout,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(values ...string) {
	t.Rows = append(t.Rows, values)
}

// Print renders the table
func (t *Table) Print() {
	if len(t.Headers) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		widths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Build format string
	formats := make([]string, len(t.Headers))
	for i := range widths {
		formats[i] = fmt.Sprintf("%%-%ds", widths[i])
	}
	formatStr := strings.Join(formats, "  ")

	// Print headers
	headerVals := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		headerVals[i] = colorize(h, colorBold)
	}
	_, _ = fmt.Fprintf(t.writer, formatStr+"\n", headerVals...) // Ignore write errors - main operation succeeded

	// Print separator
	totalWidth := 0
	for _, w := range widths {
		totalWidth += w
	}
	totalWidth += 2 * (len(widths) - 1)
	_, _ = fmt.Fprintln(t.writer, strings.Repeat("-", totalWidth))

	// Print rows
	for _, row := range t.Rows {
		rowVals := make([]interface{}, len(row))
		for i, cell := range row {
			rowVals[i] = cell
		}
		_, _ = fmt.Fprintf(t.writer, formatStr+"\n", rowVals...)
	}
}
