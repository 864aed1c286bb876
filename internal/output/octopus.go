package output

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/darmiel/ghtoken/internal/core"
)

var (
	_ core.Reporter         = (*OctopusReporter)(nil)
	_ core.ProgressReporter = (*OctopusReporter)(nil)
)

type OctopusConfig struct {
	// Variable overrides the name of the sensitive output variable.
	Variable string `mapstructure:"variable"`
}

// OctopusReporter writes Octopus Deploy service messages.
// The secret is set as a sensitive output variable and is never printed in clear text.
type OctopusReporter struct {
	mu       sync.Mutex
	out      io.Writer
	variable string
}

func NewOctopusReporter(out io.Writer, conf OctopusConfig) *OctopusReporter {
	return &OctopusReporter{
		out:      out,
		variable: conf.Variable,
	}
}

func (r *OctopusReporter) Info(format string, args ...any) {
	r.writeLines(text(format, args...))
}

func (r *OctopusReporter) Warn(format string, args ...any) {
	r.writeLines("##octopus[stdout-warning]", text(format, args...), "##octopus[stdout-default]")
}

func (r *OctopusReporter) Error(format string, args ...any) {
	r.writeLines("##octopus[stdout-error]", text(format, args...), "##octopus[stdout-default]")
}

// text formats a log message. Service message markers inside it are broken up,
// so values like repository names cannot inject service messages.
func text(format string, args ...any) string {
	return strings.ReplaceAll(fmt.Sprintf(format, args...), "##octopus[", "# #octopus[")
}

func (r *OctopusReporter) SetSecretOutput(name, value string) {
	if r.variable != "" {
		name = r.variable
	}
	r.writeLines(serviceMessage("setVariable",
		"name", name,
		"value", value,
		"sensitive", "true",
	))
}

func (r *OctopusReporter) Progress(percent int, message string) {
	props := []string{"percentage", strconv.Itoa(percent)}
	if message != "" {
		props = append(props, "message", message)
	}
	r.writeLines(serviceMessage("progress", props...))
}

func (r *OctopusReporter) writeLines(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range lines {
		_, _ = fmt.Fprintln(r.out, line)
	}
}

// serviceMessage renders ##octopus[name key='value' ...] with base64 encoded values,
// so values may contain quotes and newlines. props are key/value pairs.
func serviceMessage(name string, props ...string) string {
	var sb strings.Builder
	sb.WriteString("##octopus[")
	sb.WriteString(name)
	for i := 0; i+1 < len(props); i += 2 {
		fmt.Fprintf(&sb, " %s='%s'", props[i], encode(props[i+1]))
	}
	sb.WriteByte(']')
	return sb.String()
}

func encode(value string) string {
	return base64.StdEncoding.EncodeToString([]byte(value))
}
