package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/entity-review-api/internal/dto"
	"github.com/noah-isme/entity-review-api/internal/models"
	"github.com/noah-isme/entity-review-api/internal/repository"
	"github.com/noah-isme/entity-review-api/internal/service"
	"github.com/noah-isme/entity-review-api/pkg/database"
)

var (
	flagReviewer string
	flagTicker   string
	flagLimit    int
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Print the submission log",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := models.SubmissionFilter{Reviewer: flagReviewer, Ticker: flagTicker, Limit: flagLimit}
		if flagCategory != "" {
			c, err := models.ParseCategory(flagCategory)
			if err != nil {
				fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
				exitCode = ExitUsageError
				return nil
			}
			filter.Category = c
		}

		cfg, logr, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer db.Close() //nolint:errcheck

		logs := service.NewSubmissionLogService(repository.NewSubmissionRepository(db, nil), logr)
		list, err := logs.List(ctx, filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		return writeSubmissions(cmd.OutOrStdout(), list)
	},
}

func init() {
	submissionsCmd.Flags().StringVar(&flagCategory, "category", "", "Only show asset, indication or catalyst submissions")
	submissionsCmd.Flags().StringVar(&flagReviewer, "reviewer", "", "Only show submissions by this reviewer")
	submissionsCmd.Flags().StringVar(&flagTicker, "ticker", "", "Only show submissions for this ticker")
	submissionsCmd.Flags().IntVar(&flagLimit, "limit", 50, "Maximum number of entries")
}

func writeSubmissions(out io.Writer, list *dto.SubmissionListResponse) error {
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED\tREVIEW\tCATEGORY\tTICKER\tREVIEWER\tRECORDS\tAPPROVED\tREJECTED\tDELETED")
	for _, s := range list.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			s.SubmittedAt.Format(time.RFC3339), s.ReviewID, s.Category, s.Ticker, s.Reviewer,
			s.RecordCount, s.Approved, s.Rejected, s.Deleted)
	}
	return tw.Flush()
}
