package command

import (
	"github.com/alessio/shellescape"
)

// Quote renders a command line for logs
func Quote(name string, args ...string) string {
	if len(args) == 0 {
		return shellescape.Quote(name)
	}

	return shellescape.QuoteCommand(append([]string{name}, args...))
}
