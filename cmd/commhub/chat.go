package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
	"github.com/pushkargithub0611/comm-module-goa/internal/conversation"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <group-id>",
		Short: "Open a conversation: history, live arrivals, and a send prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), args[0])
		},
	}
}

func (a *app) runChat(parent context.Context, groupID string) error {
	userID, err := a.currentUser()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv, err := conversation.Open(ctx, conversation.Options{
		API:            a.api,
		UserID:         userID,
		GroupID:        groupID,
		WSURL:          a.cfg.WSURL,
		ReconnectDelay: a.cfg.ReconnectDelay,
		Logger:         a.log,
		OnMessage: func(m chat.Message) {
			printMessage(m)
		},
		OnConnectionChange: func(connected bool) {
			if connected {
				fmt.Println("* connected")
			} else {
				fmt.Println("* disconnected")
			}
		},
	})
	if err != nil {
		return err
	}
	defer conv.Close()

	if conv.Degraded() {
		fmt.Println("warning: backend unreachable, showing demo history")
	}
	for _, m := range conv.Messages() {
		printMessage(m)
	}
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if _, err := conv.Send(ctx, text); err != nil {
				a.log.Error().Err(err).Msg("send message failed")
				fmt.Println("! message not sent")
			}
		}
	}
}

func printMessage(m chat.Message) {
	fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), m.SenderID, m.Content)
}
