// internal/client/console.go
package client

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"

	"github.com/erilali/framechat/internal/frame"
)

// Format renders u as "sender> body". Invalid UTF-8 is replaced, never dropped.
func Format(u frame.Unit) string {
	return printable(u.Sender()) + frame.Separator + " " + printable(u.Body())
}

func printable(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// Console prints received units and the input prompt to a terminal.
type Console struct {
	out    io.Writer
	prompt string
	mu     sync.Mutex

	senderStyle color.Style
	ownStyle    color.Style
	serverStyle color.Style
}

// NewConsole writes to out, prompting with name.
func NewConsole(out io.Writer, name string) *Console {
	return &Console{
		out:         out,
		prompt:      name + frame.Separator + " ",
		senderStyle: color.New(color.FgCyan, color.OpBold),
		ownStyle:    color.New(color.FgGreen, color.OpBold),
		serverStyle: color.New(color.FgYellow),
	}
}

// Prompt prints the input prompt.
func (c *Console) Prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.prompt)
}

// Display prints u on its own line and reprints the prompt below it.
func (c *Console) Display(u frame.Unit) {
	style := c.senderStyle
	switch {
	case u.Sender() == frame.ServerName:
		style = c.serverStyle
	case u.Sender()+frame.Separator+" " == c.prompt:
		style = c.ownStyle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r%s%s %s\n%s",
		style.Render(printable(u.Sender())), frame.Separator, printable(u.Body()), c.prompt)
}
