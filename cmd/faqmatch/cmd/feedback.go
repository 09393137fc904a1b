package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFeedbackCmd() *cobra.Command {
	var (
		sessionID string
		faqID     int64
		helpful   bool
	)

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record a helpfulness vote for a matched answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			// faqID 0 means the vote rated a clarify response with no
			// matched record.
			var id *int64
			if faqID > 0 {
				id = &faqID
			}

			if err := s.RecordFeedback(cmd.Context(), sessionID, id, helpful); err != nil {
				return fmt.Errorf("recording feedback: %w", err)
			}

			newPrinter(cmd).Successf("Feedback recorded for session %s", sessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier the vote belongs to")
	cmd.Flags().Int64Var(&faqID, "faq", 0, "Matched FAQ id (0 when the vote rates a clarify response)")
	cmd.Flags().BoolVar(&helpful, "helpful", false, "The answer was helpful")

	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newEscalateCmd() *cobra.Command {
	var (
		sessionID string
		contact   string
	)

	cmd := &cobra.Command{
		Use:   "escalate <question>",
		Short: "Record an unanswered question for human follow-up",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			query := args[0]
			for _, a := range args[1:] {
				query += " " + a
			}

			if err := s.RecordEscalation(cmd.Context(), sessionID, query, contact); err != nil {
				return fmt.Errorf("recording escalation: %w", err)
			}

			newPrinter(cmd).Successf("Escalation recorded for session %s", sessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier the question came from")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact address for the follow-up")

	_ = cmd.MarkFlagRequired("session")

	return cmd
}
