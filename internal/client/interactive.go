package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Interact turns each line of in into a command for c and prints replies
// to out until in is exhausted, the user types quit, or the server closes
// the connection.
//
//	turn          asks whose turn it is
//	move e4       plays a move (also accepted as "move:e4")
//	anything:else is sent verbatim
func Interact(c Client, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for reply := range c.Replies() {
			fmt.Fprintf(out, "< %s\n", reply)
		}
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		if err := dispatch(c, line); err != nil {
			fmt.Fprintf(out, "! %v\n", err)
		}

		select {
		case <-done:
			return nil
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	c.Disconnect()
	<-done
	return nil
}

func dispatch(c Client, line string) error {
	switch {
	case line == "turn":
		return c.Turn()
	case strings.HasPrefix(line, "move "):
		return c.Move(strings.TrimSpace(strings.TrimPrefix(line, "move ")))
	default:
		return c.Send(line)
	}
}
