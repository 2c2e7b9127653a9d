// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package destroy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tfctl/tfboot/internal/log"
)

// Confirmer gates destructive operations. It is passed in as a capability so
// destroy can be scripted and tested without a real terminal.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmerFunc adapts a plain function to the Confirmer interface.
type ConfirmerFunc func(prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// AutoApprove answers yes without prompting (the --auto-approve flag).
var AutoApprove = ConfirmerFunc(func(prompt string) (bool, error) {
	log.Debugf("confirmation auto-approved: prompt=%q", prompt)
	return true, nil
})

// TerminalConfirmer prompts on Out and reads a y/N answer from In. Anything
// but an explicit yes declines.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminalConfirmer returns a Confirmer wired to the process terminal.
func NewTerminalConfirmer() *TerminalConfirmer {
	return &TerminalConfirmer{In: os.Stdin, Out: os.Stderr}
}

// Confirm implements Confirmer. When In is the process stdin and it is not a
// terminal, the answer is no: a non-interactive run must opt in explicitly
// rather than hang or destroy by accident.
func (c *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	if f, ok := c.In.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		log.Warnf("stdin is not a terminal; refusing to confirm (use --auto-approve to script this)")
		return false, nil
	}

	fmt.Fprintf(c.Out, "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
