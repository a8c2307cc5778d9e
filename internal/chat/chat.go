// Package chat is the bot's console transport. It reads chat lines from a
// stream, picks out the ones addressed to the bot and writes each reply back,
// one message at a time.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"boothbot/internal/logging"
)

// DefaultPollDelay is the pause between handled messages.
const DefaultPollDelay = time.Second

// Responder produces the reply to one command. *resolver.Resolver satisfies it.
type Responder interface {
	Respond(ctx context.Context, command, user string) string
}

// Message is one line read from the transport.
type Message struct {
	User string
	Text string
}

// MentionToken is how a chat message addresses the bot with the given id.
func MentionToken(botID string) string {
	if botID == "" {
		return ""
	}
	return "<@" + botID + ">"
}

// ParseMention returns the command addressed to botID in text: the text
// after the first mention (up to any second mention), trimmed and
// lower-cased. ok is false when text does not mention the bot. With an
// empty botID every line is addressed to the bot.
func ParseMention(text, botID string) (command string, ok bool) {
	token := MentionToken(botID)
	if token == "" {
		return strings.ToLower(strings.TrimSpace(text)), true
	}
	_, after, found := strings.Cut(text, token)
	if !found {
		return "", false
	}
	after, _, _ = strings.Cut(after, token)
	return strings.ToLower(strings.TrimSpace(after)), true
}

// ParseLine splits a "user<TAB>text" line. Lines without a tab belong to
// defaultUser.
func ParseLine(line, defaultUser string) Message {
	if user, text, found := strings.Cut(line, "\t"); found && strings.TrimSpace(user) != "" {
		return Message{User: strings.TrimSpace(user), Text: text}
	}
	return Message{User: defaultUser, Text: line}
}

// Options configures a Loop.
type Options struct {
	BotID       string
	DefaultUser string
	PollDelay   time.Duration // zero means no pause
}

// Loop reads messages from in and writes replies to out.
type Loop struct {
	in        io.Reader
	out       io.Writer
	responder Responder
	opts      Options
}

// NewLoop builds a Loop.
func NewLoop(in io.Reader, out io.Writer, responder Responder, opts Options) *Loop {
	return &Loop{in: in, out: out, responder: responder, opts: opts}
}

// Run processes messages until the input ends or ctx is cancelled.
// Both of those are a clean stop and return nil.
//
// The reader goroutine is left running when ctx ends: a Read on a terminal
// or other blocking descriptor cannot be interrupted, so Run does not wait
// for it. It exits on the next line or at EOF.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages := make(chan Message)
	readErr := make(chan error, 1)
	go func() {
		defer close(messages)
		readErr <- l.read(ctx, messages)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return l.serve(gctx, messages)
	})
	// Closing the input unblocks readers that support it, such as pipes.
	g.Go(func() error {
		<-gctx.Done()
		if c, ok := l.in.(io.Closer); ok {
			c.Close()
		}
		return nil
	})

	logging.Chat("Chat loop started (bot id %q)", l.opts.BotID)
	err := g.Wait()
	if err == nil {
		select {
		case err = <-readErr:
		default:
		}
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logging.Chat("Chat loop stopped")
	return err
}

func (l *Loop) read(ctx context.Context, messages chan<- Message) error {
	scanner := bufio.NewScanner(l.in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		select {
		case messages <- ParseLine(line, l.opts.DefaultUser):
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read chat input: %w", err)
	}
	return nil
}

func (l *Loop) serve(ctx context.Context, messages <-chan Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			handled, err := l.handle(ctx, msg)
			if err != nil {
				return err
			}
			if handled && !l.pause(ctx) {
				return nil
			}
		}
	}
}

// handle answers msg if it is addressed to the bot.
func (l *Loop) handle(ctx context.Context, msg Message) (bool, error) {
	command, ok := ParseMention(msg.Text, l.opts.BotID)
	if !ok {
		logging.ChatDebug("ignoring message from %s: bot not mentioned", msg.User)
		return false, nil
	}

	reply := l.responder.Respond(ctx, command, msg.User)
	if _, err := fmt.Fprintf(l.out, "%s\n\n", reply); err != nil {
		logging.ChatError("failed to write reply: %v", err)
		return true, fmt.Errorf("write reply: %w", err)
	}
	return true, nil
}

// pause waits out the poll delay. It reports false if ctx ended first.
func (l *Loop) pause(ctx context.Context) bool {
	if l.opts.PollDelay <= 0 {
		return true
	}
	t := time.NewTimer(l.opts.PollDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
