package output

import (
	"fmt"
	"io"

	"github.com/darmiel/ghtoken/internal/core"
	"github.com/darmiel/ghtoken/internal/logging"
)

var _ core.Reporter = (*PlainReporter)(nil)

// PlainReporter logs status messages and prints the secret as a single line.
type PlainReporter struct {
	logging.InternalLogger
	out io.Writer
}

func NewPlainReporter(logger logging.InternalLogger, out io.Writer) *PlainReporter {
	return &PlainReporter{
		InternalLogger: logger,
		out:            out,
	}
}

// SetSecretOutput prints the value only, so it can be captured with $(ghtoken issue ...).
func (r *PlainReporter) SetSecretOutput(_ string, value string) {
	_, _ = fmt.Fprintln(r.out, value)
}
