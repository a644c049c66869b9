package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/wordgame/internal/client"
	"example.com/wordgame/internal/protocol"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <host:port | path.sock | ws://host:port/ws>\n", os.Args[0])
		os.Exit(2)
	}
	target, err := client.ParseTarget(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	c, err := client.Dial(dialCtx, target)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	fmt.Println("connected to", target)
	fmt.Println(client.Help)

	done := make(chan struct{})
	go func() {
		defer close(done)
		receive(c)
	}()

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			msg, err := client.ParseCommand(line)
			if errors.Is(err, client.ErrQuit) {
				return
			}
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := c.Send(msg); err != nil {
				fmt.Fprintln(os.Stderr, "send:", err)
				return
			}
		}
	}
}

func receive(c *client.Client) {
	for {
		msg, err := c.Receive()
		switch {
		case errors.Is(err, protocol.ErrMalformed):
			fmt.Println("skipping malformed message:", err)
			continue
		case errors.Is(err, io.EOF):
			fmt.Println("connection closed by server")
			return
		case err != nil:
			fmt.Println("receive:", err)
			return
		}
		fmt.Println(client.Describe(msg))
		if _, ok := msg.(protocol.Disconnect); ok {
			return
		}
	}
}
