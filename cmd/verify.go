package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [photo]",
	Short: "Verify a live photo against an enrolled person",
	Long: `Compare a photo file against the identity enrolled under a document
identifier. Exits non-zero when the faces do not match, so the command
can gate scripts directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

// errNotVerified makes the command exit non-zero on a rejected match.
var errNotVerified = errors.New("not verified")

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("document-id", "", "Document identifier (required)")
	_ = verifyCmd.MarkFlagRequired("document-id")
}

func runVerify(cmd *cobra.Command, args []string) error {
	documentID := mustGetString(cmd, "document-id")

	photo, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	s, err := buildStack(false)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.verifier.Verify(context.Background(), documentID, photo)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	verdict := "REJECTED"
	if result.Verified {
		verdict = "VERIFIED"
	}
	fmt.Printf("%s  %s (%s)\n", verdict, result.Person.Name, result.Person.DocumentID)
	fmt.Printf("  Score:    %.2f\n", result.Score)
	fmt.Printf("  Distance: %.4f (threshold %.2f)\n", result.Distance, s.cfg.Calibration.VerifyThreshold)

	if !result.Verified {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errNotVerified
	}
	return nil
}
