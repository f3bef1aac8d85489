package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/zhouzirui/weather-chat/backend/internal/model/chat"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
	chatService "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

// repl drives one session from line-oriented input. Session observers print
// from the turn goroutine, so every write goes through mu.
type repl struct {
	session *chatService.Session
	theme   theme

	mu        sync.Mutex
	out       io.Writer
	streamed  string
	streaming bool
}

func newREPL(session *chatService.Session, out io.Writer) *repl {
	return &repl{
		session: session,
		theme:   newTheme(out),
		out:     out,
	}
}

func (r *repl) run(ctx context.Context, in io.Reader, interrupts <-chan os.Signal) error {
	for _, msg := range r.session.Messages() {
		r.printMessage(msg)
	}

	unsubscribe := r.session.Subscribe(r.observe)
	defer unsubscribe()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	for {
		r.printf("%s", r.theme.Prompt.Render("> "))

		var line string
		select {
		case <-ctx.Done():
			return nil
		case <-interrupts:
			r.printf("\n")
			return nil
		case err := <-scanErr:
			r.printf("\n")
			return err
		case line = <-lines:
		}

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "":
			continue
		}

		turn, err := r.session.Submit(ctx, line)
		if err != nil {
			if !errors.Is(err, agent.ErrEmptyInput) {
				r.printf("%s\n", r.theme.Error.Render(err.Error()))
			}
			continue
		}

		select {
		case <-turn.Done():
		case <-interrupts:
			r.session.Cancel()
			<-turn.Done()
		}

		if errors.Is(turn.Wait(), context.Canceled) {
			r.endStream()
			r.printf("%s\n", r.theme.Status.Render("(cancelled)"))
		}
	}
}

func (r *repl) observe(u chat.Update) {
	switch u.Kind {
	case chat.UpdatePartial:
		r.mu.Lock()
		defer r.mu.Unlock()
		// A structured result replaces the text, which cannot be streamed as
		// a suffix; the final message is printed in full instead.
		if !strings.HasPrefix(u.Pending, r.streamed) {
			return
		}
		if !r.streaming {
			r.streaming = true
			fmt.Fprintf(r.out, "%s ", r.theme.Agent.Render("Agent:"))
		}
		fmt.Fprint(r.out, u.Pending[len(r.streamed):])
		r.streamed = u.Pending

	case chat.UpdateAppend:
		if u.Appended == nil || u.Appended.Role != chat.RoleAssistant {
			return
		}
		r.mu.Lock()
		complete := r.streaming && strings.TrimSpace(r.streamed) == u.Appended.Content
		r.mu.Unlock()

		r.endStream()
		if !complete {
			r.printMessage(*u.Appended)
		}
	}
}

func (r *repl) endStream() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.streaming {
		fmt.Fprintln(r.out)
	}
	r.streaming = false
	r.streamed = ""
}

func (r *repl) printMessage(msg chat.Message) {
	stamp := r.theme.Status.Render("[" + msg.Timestamp + "]")
	if msg.Role == chat.RoleUser {
		r.printf("%s %s %s\n", stamp, r.theme.UserLabel.Render("You:"), msg.Content)
		return
	}
	text := r.theme.AgentText.Render(msg.Content)
	if msg.Content == chatService.FailureNotice {
		text = r.theme.Error.Render(msg.Content)
	}
	r.printf("%s %s %s\n", stamp, r.theme.Agent.Render("Agent:"), text)
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}
