package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spectrocheck/internal/analyzer"
	"spectrocheck/internal/history"
	"spectrocheck/internal/ipc"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/notifications"
	"spectrocheck/internal/pipeline"
	"spectrocheck/internal/report"
	"spectrocheck/internal/resultcache"
	"spectrocheck/internal/verdict"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Queue audio files for upscale analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			client, err := ctx.dialClient()
			if err != nil {
				// No daemon: run the check synchronously in this process.
				return runLocalCheck(cmd, ctx, args)
			}
			defer client.Close()

			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve path %q: %w", arg, err)
				}
				resp, err := client.Check(path)
				if err != nil {
					return fmt.Errorf("check %s: %w", path, err)
				}
				printCheckResult(stdout, path, resp)
			}
			return nil
		},
	}
}

// runLocalCheck analyzes the files on the caller's goroutine without a
// daemon. Verdicts still land in the shared cache and history store.
func runLocalCheck(cmd *cobra.Command, ctx *commandContext, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	logger := logging.NewNop()
	cache := resultcache.New(cfg.Paths.CacheFile, logger)
	hist, err := history.Open(cfg)
	if err != nil {
		hist = nil
	} else {
		defer hist.Close()
	}
	reporter := report.NewWriterTo(cfg, logger, cmd.OutOrStdout())
	adapter := analyzer.New(cfg, logger)
	p := pipeline.New(cfg, adapter, cache, hist, reporter, notifications.NewService(cfg), logger)

	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", arg, err)
		}
		p.CheckNow(cmd.Context(), path)
	}
	return nil
}

func printCheckResult(w io.Writer, path string, resp *ipc.CheckResponse) {
	if resp == nil {
		return
	}
	if resp.Verdict == nil {
		if resp.Queued {
			fmt.Fprintf(w, "Queued %s\n", path)
		} else {
			fmt.Fprintf(w, "Not queued (already pending): %s\n", path)
		}
		return
	}
	fmt.Fprintln(w, formatVerdictLine(path, resp.Verdict))
}

func formatVerdictLine(path string, v *ipc.VerdictPayload) string {
	status := verdict.Status(v.Status)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s", status.Glyph(), v.Status, path)
	details := make([]string, 0, 3)
	if v.DeclaredKbps > 0 {
		details = append(details, fmt.Sprintf("declared %d kbps", v.DeclaredKbps))
	}
	if v.ActualKbps > 0 {
		details = append(details, fmt.Sprintf("actual %d kbps", v.ActualKbps))
	}
	if v.MaxFrequencyHz > 0 {
		details = append(details, fmt.Sprintf("max freq %d Hz", v.MaxFrequencyHz))
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
	}
	if v.Reason != "" {
		fmt.Fprintf(&b, " - %s", v.Reason)
	}
	return b.String()
}
