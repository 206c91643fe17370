package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTopicsCmd(a *app) *cobra.Command {
	var standard bool

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List followed topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			list := a.client.PreferredTopics
			if standard {
				list = a.client.StandardTopics
			}
			topics, err := list(ctx)
			if err != nil {
				return explain(err)
			}
			printTopics(cmd.OutOrStdout(), topics)
			return nil
		},
	}
	cmd.Flags().BoolVar(&standard, "standard", false, "list the standard topics instead")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Follow a topic, creating it if needed",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := strings.TrimSpace(strings.Join(args, " "))
				if name == "" {
					return fmt.Errorf("topic name is empty")
				}
				t, err := a.client.AddPreferredTopic(cmd.Context(), name)
				if err != nil {
					return explain(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Following %s (%d)\n", t.Name, t.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Unfollow a topic",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.client.RemovePreferredTopic(cmd.Context(), id); err != nil {
					return explain(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unfollowed %d\n", id)
				return nil
			},
		},
	)
	return cmd
}

func newSourcesCmd(a *app) *cobra.Command {
	var attached bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List news sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			list := a.client.AllSources
			if attached {
				list = a.client.AttachedSources
			}
			sources, err := list(ctx)
			if err != nil {
				return explain(err)
			}
			printSources(cmd.OutOrStdout(), sources)
			return nil
		},
	}
	cmd.Flags().BoolVar(&attached, "attached", false, "list only attached sources")

	for _, attach := range []bool{true, false} {
		use, short, done := "attach <id>", "Attach a source to the feed", "Attached"
		if !attach {
			use, short, done = "detach <id>", "Detach a source from the feed", "Detached"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if attach {
					err = a.client.AttachSource(cmd.Context(), id)
				} else {
					err = a.client.DetachSource(cmd.Context(), id)
				}
				if err != nil {
					return explain(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", done, id)
				return nil
			},
		})
	}
	return cmd
}
