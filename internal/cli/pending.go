package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/entity-review-api/internal/dto"
	"github.com/noah-isme/entity-review-api/internal/models"
	"github.com/noah-isme/entity-review-api/internal/service"
	"github.com/noah-isme/entity-review-api/internal/upstream"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

var (
	flagUsername string
	flagPassword string
	flagCategory string
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending reviews on the review backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagUsername == "" {
			fmt.Fprintln(os.Stderr, "FAIL: --username is required")
			exitCode = ExitUsageError
			return nil
		}
		password := flagPassword
		if password == "" {
			password = os.Getenv("REVIEWCTL_PASSWORD")
		}

		cfg, logr, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Upstream.Timeout+15*time.Second)
		defer cancel()

		client := upstream.NewClient(cfg.Upstream, logr)
		login, err := client.Login(ctx, flagUsername, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		reviews := service.NewReviewService(service.ReviewServiceParams{Backend: client, Logger: logr})
		sess := &models.Session{ID: "reviewctl", Username: flagUsername, UpstreamToken: login.AccessToken}
		list, _, err := reviews.ListPending(ctx, sess, flagCategory)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}
		return writePending(cmd.OutOrStdout(), list)
	},
}

func init() {
	pendingCmd.Flags().StringVar(&flagUsername, "username", "", "Reviewer username")
	pendingCmd.Flags().StringVar(&flagPassword, "password", "", "Reviewer password (default: $REVIEWCTL_PASSWORD)")
	pendingCmd.Flags().StringVar(&flagCategory, "category", "", "Only show asset, indication or catalyst reviews")
}

func writePending(out io.Writer, list *dto.PendingListResponse) error {
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REVIEW\tCATEGORY\tTICKER\tSUBMITTED")
	for _, item := range list.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.ReviewID, item.Category, item.Ticker, item.SubmittedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d pending (asset %d, indication %d, catalyst %d)\n", list.Total,
		list.Counts[models.CategoryAsset], list.Counts[models.CategoryIndication], list.Counts[models.CategoryCatalyst])
	return nil
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, appErrors.ErrInvalidCredentials), errors.Is(err, appErrors.ErrSessionExpired):
		return ExitAuthError
	case errors.Is(err, appErrors.ErrUnknownCategory), errors.Is(err, appErrors.ErrValidation):
		return ExitUsageError
	default:
		return ExitRuntimeError
	}
}
