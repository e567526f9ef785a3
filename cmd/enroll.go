package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [photo]",
	Short: "Enroll a person from an ID photo",
	Long: `Enroll a single person from a photo file.
The photo must contain at least one detectable face; the largest face
is used. The document identifier must not be enrolled yet.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Person's full name (required)")
	enrollCmd.Flags().String("document-id", "", "Document identifier (required)")
	_ = enrollCmd.MarkFlagRequired("name")
	_ = enrollCmd.MarkFlagRequired("document-id")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
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

	record, err := s.enroller.Enroll(context.Background(), name, documentID, photo)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %s\n", record.Name)
	fmt.Printf("  UID:         %s\n", record.UID)
	fmt.Printf("  Document ID: %s\n", record.DocumentID)
	fmt.Printf("  Model:       %s (%d dims)\n", record.Model, record.Dim)
	return nil
}
