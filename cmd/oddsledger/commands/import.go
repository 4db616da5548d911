package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"oddsledger/internal/multiplier"
	"oddsledger/internal/ocr"

	"github.com/spf13/cobra"
)

var (
	importOwner string
	importFile  string
	importImage bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace an owner's history from a text file or a screenshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		var rec ocr.Recognizer = ocr.PlainText{}
		if importImage {
			rec = ocr.NewTesseract(cfg.OCR)
		}
		text, err := rec.Recognize(ctx, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", importFile, err)
		}

		eng, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		values, err := eng.IngestReplace(ctx, importOwner, text)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"owner": importOwner, "values": multiplier.Strings(values)})
	},
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "owner id whose history is replaced")
	importCmd.Flags().StringVar(&importFile, "file", "", "text file or image to import")
	importCmd.Flags().BoolVar(&importImage, "image", false, "run OCR on the file instead of reading it as text")
	_ = importCmd.MarkFlagRequired("owner")
	_ = importCmd.MarkFlagRequired("file")
}
