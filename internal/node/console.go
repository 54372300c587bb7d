package node

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/danmuck/mqmesh/internal/protocol/envelope"
)

// HandleLine validates one console line of the form
// `<message> <neighbour-id>`. Nothing is transmitted; a known neighbour is
// only reported as the would-be recipient.
func (n *Node) HandleLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	err := n.checkLine(fields)
	switch {
	case err == nil:
		fmt.Fprintf(n.out, ":%s would be sent to %s\n", fields[0], fields[1])
	case errors.Is(err, ErrUnknownNeighbour):
		fmt.Fprintln(n.out, "Please enter pid from the ones listed above.")
	default:
		fmt.Fprintf(n.out, "error: %v\n", err)
	}
	return err
}

func (n *Node) checkLine(fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("%w: expected <message> <neighbour-id>", ErrInvalidInput)
	}
	if len(fields[0]) > envelope.MaxTextLen {
		return fmt.Errorf("%w: message longer than %d bytes", ErrInvalidInput, envelope.MaxTextLen)
	}
	target, err := identity.Parse(fields[1])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !n.registry.Contains(target) {
		return fmt.Errorf("%w: %s", ErrUnknownNeighbour, target)
	}
	return nil
}

func (n *Node) prompt() {
	if !n.cfg.Console || n.registry.Len() == 0 {
		return
	}
	fmt.Fprintln(n.out, "Now you can enter a message to send to one of the neighbours above!")
}

// ReadLines feeds lines from r into the returned channel until EOF or ctx
// ends. The blocking read lives on its own goroutine so the event loop is
// never held up by the console.
func ReadLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
