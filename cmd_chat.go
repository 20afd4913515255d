package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the warehouse assistant from the terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("thread", "", "thread id to resume (default: a new one)")
	chatCmd.Flags().Bool("reset", false, "clear the thread before starting")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	threadID, _ := cmd.Flags().GetString("thread")
	reset, _ := cmd.Flags().GetBool("reset")
	if strings.TrimSpace(threadID) == "" {
		threadID = uuid.NewString()
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if reset {
		if err := rt.Assistant.Reset(ctx, threadID); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "thread %s (empty line or /exit to quit)\n", threadID)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "/exit" {
			return nil
		}

		reply, err := rt.Assistant.HandleMessage(ctx, threadID, line)
		if err != nil {
			cmd.PrintErrln("error:", err)
			continue
		}
		fmt.Fprintln(out, reply.Reply)
	}
}
