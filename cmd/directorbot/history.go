package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/m3rciful/directorbot/core/bootstrap"
	corecmd "github.com/m3rciful/directorbot/core/cmd"
	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
	"github.com/m3rciful/directorbot/core/storage"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	outcomeStyle = map[dialogue.Outcome]lipgloss.Style{
		dialogue.OutcomeCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		dialogue.OutcomeAborted:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type historyFlags struct {
	platform string
	user     string
	limit    int
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	hf := &historyFlags{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded dialogue sessions of one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if hf.user == "" {
				return errors.New("history: --user is required")
			}
			path := corecmd.ResolveConfigPath(corecmd.Options{ConfigPath: flags.configPath})
			cfg, err := config.LoadStorage(path)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer func() { _ = logger.Shutdown() }()

			infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer func() { _ = infra.Close() }()

			platform := hf.platform
			if platform == "" {
				platform = cfg.Platform
			}
			if platform == "" {
				platform = config.PlatformDiscord
			}
			recs, err := storage.NewSessionStore(infra.DB).Recent(historyContext(cmd), platform, dialogue.UserID(hf.user), hf.limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			return writeHistory(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringVarP(&hf.platform, "platform", "p", "", "Platform the user belongs to (default: configured platform)")
	cmd.Flags().StringVarP(&hf.user, "user", "u", "", "Platform user id")
	cmd.Flags().IntVarP(&hf.limit, "limit", "n", storage.DefaultRecentLimit, "Maximum number of sessions")
	return cmd
}

// writeHistory prints recs newest first as aligned columns.
func writeHistory(out io.Writer, recs []dialogue.SessionRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(out, headerStyle.Render("No sessions recorded"))
		return err
	}
	if _, err := fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d session(s)", len(recs)))); err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("STARTED")+"\t"+titleStyle.Render("SELECTED")+"\t"+
		titleStyle.Render("ACTIONS")+"\t"+titleStyle.Render("OUTCOME")+"\t"+titleStyle.Render("DURATION"))
	for _, r := range recs {
		selected := r.Selected
		if selected == "" {
			selected = "-"
		}
		outcome := string(r.Outcome)
		if style, ok := outcomeStyle[r.Outcome]; ok {
			outcome = style.Render(outcome)
		}
		_, _ = fmt.Fprintln(w, r.StartedAt.UTC().Format(time.DateTime)+"\t"+selected+"\t"+
			strconv.Itoa(r.Actions)+"\t"+outcome+"\t"+r.EndedAt.Sub(r.StartedAt).Round(time.Second).String())
	}
	return w.Flush()
}

// historyContext keeps cobra's nil context from reaching the store.
func historyContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
