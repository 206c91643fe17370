package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/synapse-news/synapse-client/internal/tui"
	"github.com/synapse-news/synapse-client/pkg/client"
	"github.com/synapse-news/synapse-client/pkg/feed"
	"github.com/synapse-news/synapse-client/pkg/pagination"
	"github.com/synapse-news/synapse-client/pkg/session"
)

func newFeedCmd(a *app) *cobra.Command {
	var (
		plain  bool
		pages  int
		topic  int64
		latest bool
	)

	cmd := &cobra.Command{
		Use:         "feed",
		Short:       "Browse the news feed",
		Long:        "Browse the news feed. Scrolling to the end of the list loads the next page.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{tuiAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !a.session.CheckAuth(ctx) {
				return errNotSignedIn
			}
			if plain {
				return a.printFeed(cmd, feedSource(a.client, topic, latest), pages)
			}
			return a.runTUI(cmd)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print pages instead of starting the interactive view")
	cmd.Flags().IntVar(&pages, "pages", 1, "pages to print with --plain")
	cmd.Flags().Int64Var(&topic, "topic", 0, "topic id to print with --plain")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the main feed instead of For You with --plain")
	return cmd
}

func feedSource(c *client.Client, topic int64, latest bool) feed.FetchFunc[client.News] {
	switch {
	case topic > 0:
		return c.TopicFeedFunc(topic)
	case latest:
		return c.FeedFunc()
	default:
		return c.ForYouFeedFunc()
	}
}

// printFeed drives a feed controller for up to pages pages.
func (a *app) printFeed(cmd *cobra.Command, fetch feed.FetchFunc[client.News], pages int) error {
	cfg := feed.DefaultConfig()
	cfg.PageSize = a.cfg.PageSize
	cfg.FetchTimeout = a.cfg.FetchTimeout
	logger := a.logger.With().Str("component", "feed").Logger()
	cfg.Logger = &logger
	ctrl := feed.New(fetch, cfg)

	ctx := cmd.Context()
	for i := 0; i < pages && ctrl.HasMore(); i++ {
		ctrl.LoadMore(ctx)
		if msg := ctrl.Err(); msg != "" {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("load page %d: %s", ctrl.Page(), msg)
		}
	}

	out := cmd.OutOrStdout()
	printNews(out, ctrl.Items())
	if ctrl.HasMore() {
		fmt.Fprintf(out, "More available, rerun with --pages %d\n", pages+1)
	}
	return nil
}

func (a *app) runTUI(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.New(ctx, a.client, tui.Config{
		PageSize:     a.cfg.PageSize,
		FetchTimeout: a.cfg.FetchTimeout,
	})
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	// Another process signing out ends the view.
	unsubscribe := a.session.Subscribe(func(s session.State) {
		if !s.IsAuthenticated && !s.Loading {
			p.Quit()
		}
	})
	defer unsubscribe()

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := a.session.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Msg("Session watch stopped")
		}
	}()

	_, err := p.Run()
	cancel()
	<-watchDone

	if errors.Is(err, tea.ErrProgramKilled) {
		return cmd.Context().Err()
	}
	if err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return errNotSignedIn
	}
	return nil
}

func newSavedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List saved articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			news, err := a.client.SavedNews(cmd.Context())
			if err != nil {
				return explain(err)
			}
			printNews(cmd.OutOrStdout(), news)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		all  bool
		page int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List read articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if all {
				cfg := pagination.DefaultConfig()
				cfg.PageSize = a.cfg.HistoryPageSize
				cfg.Timeout = a.cfg.HTTPTimeout
				news, err := pagination.NewBatchFetcher[client.News](cfg).FetchAll(ctx, a.client.HistoryFeedFunc())
				if err != nil {
					return explain(err)
				}
				printNews(cmd.OutOrStdout(), news)
				return nil
			}

			result, err := a.client.History(ctx, page, a.cfg.HistoryPageSize)
			if err != nil {
				return explain(err)
			}
			printNews(cmd.OutOrStdout(), result.Items)
			if p := result.Pagination; p != nil && p.Page < p.Pages {
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d\n", p.Page, p.Pages)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}

func newFavoriteCmd(a *app, add bool) *cobra.Command {
	use, short, done := "favorite <id>", "Save an article", "Saved"
	if !add {
		use, short, done = "unfavorite <id>", "Remove an article from saved", "Removed"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if add {
				err = a.client.FavoriteNews(cmd.Context(), id)
			} else {
				err = a.client.UnfavoriteNews(cmd.Context(), id)
			}
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", done, id)
			return nil
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Show an article and add it to the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			n, err := a.client.NewsByID(ctx, id)
			if err != nil {
				return explain(err)
			}
			if err := a.client.AddNewsToHistory(ctx, id); err != nil {
				a.logger.Warn().Err(err).Int64("news_id", id).Msg("History update failed")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, n.Title)
			if ts, ok := n.Published(); ok {
				fmt.Fprintln(out, ts.Format("Mon, 02 Jan 2006 15:04"))
			}
			if n.Description != "" {
				fmt.Fprintf(out, "\n%s\n", n.Description)
			}
			if n.URL != "" {
				fmt.Fprintf(out, "\n%s\n", n.URL)
			}
			return nil
		},
	}
}
