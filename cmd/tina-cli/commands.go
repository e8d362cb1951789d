package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/tina/internal/intake"
)

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with Tina until she recommends a policy or says goodbye",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), newClient(opts.addr), cmd.InOrStdin(), cmd.OutOrStdout(), opts.jsonOut)
		},
	}
}

func newRecommendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <context...>",
		Short: "Ask for follow-up suggestions about a conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, raw, err := newClient(opts.addr).recommend(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if opts.jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Recommendations)
			return nil
		},
	}
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the Tina API is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := newClient(opts.addr).health(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

// runChat drives one conversation, carrying the history between turns the
// way the web client does.
func runChat(ctx context.Context, c *client, in io.Reader, out io.Writer, jsonOut bool) error {
	show := func(reply *chatReply, raw []byte) {
		if jsonOut {
			fmt.Fprintln(out, string(raw))
			return
		}
		fmt.Fprintf(out, "Tina: %s\n", reply.Response)
	}

	reply, raw, err := c.start(ctx, "")
	if err != nil {
		return err
	}
	show(reply, raw)
	history := reply.History

	scanner := bufio.NewScanner(in)
	for {
		if !jsonOut {
			fmt.Fprint(out, "You: ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		reply, raw, err = c.continueChat(ctx, message, history)
		if err != nil {
			return err
		}
		show(reply, raw)
		history = reply.History

		if reply.MessageType == intake.MessageRecommendation || reply.MessageType == intake.MessageFarewell {
			return nil
		}
	}
}
