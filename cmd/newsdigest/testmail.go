package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"NewsDigest/internal/infrastructure/mail"
	"NewsDigest/internal/logging"
)

var testMailTo string

var testMailCmd = &cobra.Command{
	Use:   "testmail",
	Short: "Send sample verification and password reset emails",
	RunE:  runTestMail,
}

func init() {
	testMailCmd.Flags().StringVar(&testMailTo, "to", "", "Recipient address (required)")
	if err := testMailCmd.MarkFlagRequired("to"); err != nil {
		panic(fmt.Sprintf("failed to mark to flag as required: %v", err))
	}
	rootCmd.AddCommand(testMailCmd)
}

func runTestMail(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	mailer := mail.NewSMTPMailer(cfg.Email, mail.NewTemplates(cfg.Email.TemplatesDir), logger.With("component", "mail"))
	to := mail.Recipient{Email: testMailTo, DisplayName: "Test User"}

	if err := mailer.SendVerification(cmd.Context(), to, uuid.NewString()); err != nil {
		return fmt.Errorf("verification email: %w", err)
	}
	if err := mailer.SendPasswordReset(cmd.Context(), to, uuid.NewString()); err != nil {
		return fmt.Errorf("password reset email: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent verification and reset emails to %s\n", testMailTo)
	return nil
}
