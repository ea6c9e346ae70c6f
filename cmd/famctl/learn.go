package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"famorg/domain/session"

	"github.com/spf13/cobra"
)

func learnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn [filePath]",
		Short: "Review a knowledge file in random order",
		Long: `Start a free-learning session over one knowledge file.

Keys (followed by Enter):
  <Enter>  reveal the detail
  l        learned, next item
  f        forgot, next item
  n        skip to the next item
  p        previous item
  q        quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cleanup, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			sess := container.Sessions.NewFreeLearningSession()
			if err := sess.Start(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, session.ErrNoItems) {
					fmt.Fprintln(cmd.OutOrStdout(), "No items to review.")
					return nil
				}
				return err
			}
			return runReview(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runReview drives a session from line-based terminal input
func runReview(ctx context.Context, sess *session.FreeLearning, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if sess.State() == session.Finished {
			fmt.Fprintln(out, "All items reviewed.")
			return nil
		}
		showCard(sess, out)

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			sess.Exit()
			return scanner.Err()
		}

		var err error
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "":
			err = sess.RevealDetail()
		case "l":
			err = sess.MarkLearned(ctx)
		case "f":
			err = sess.MarkForgotten(ctx)
		case "n":
			err = sess.Advance()
		case "p":
			err = sess.Previous()
		case "q":
			sess.Exit()
			return nil
		default:
			fmt.Fprintln(out, "Unknown key; use Enter, l, f, n, p or q.")
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func showCard(sess *session.FreeLearning, out io.Writer) {
	item := sess.Current()
	if item == nil {
		return
	}
	pos, total := sess.Progress()
	fmt.Fprintf(out, "\n[%d/%d] %s\n", pos, total, item.Name)
	if item.Brief != "" {
		fmt.Fprintf(out, "  %s\n", item.Brief)
	}
	if sess.ShowDetail() {
		if item.Detail != "" {
			fmt.Fprintf(out, "  %s\n", item.Detail)
		}
		if item.URL != "" {
			fmt.Fprintf(out, "  %s\n", item.URL)
		}
		fmt.Fprintf(out, "  learned %d, forgot %d\n", item.LearnCount, item.ForgetCount)
	}
}
