package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/services/providers"
	"github.com/upb/lingflow/services/translation"
)

var ocrJSON bool

var ocrCmd = &cobra.Command{
	Use:   "ocr <image|->",
	Short: "Transcribe and translate the text in a screenshot",
	Long: `Read every visible piece of text from a screenshot and translate it.

The argument is an image file, or "-" for stdin. Files that already hold base64
or a data URL are passed through. Requires an OpenAI or Gemini key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := loadImage(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return withDependencies(cmd, func(deps *app.Dependencies) error {
			result, err := deps.Translation.TranscribeScreenshot(cmd.Context(), image, targetLang)
			if err != nil {
				return err
			}
			return printTranscription(cmd.OutOrStdout(), result, ocrJSON)
		})
	},
}

func init() {
	ocrCmd.Flags().BoolVar(&ocrJSON, "json", false, "print the result as JSON")
}

// loadImage reads path ("-" for stdin) and returns a payload the service accepts
func loadImage(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return encodeImage(data)
}

// encodeImage turns raw image bytes into a data URL; text payloads pass through
func encodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		img := providers.Image{MIMEType: mime, Data: base64.StdEncoding.EncodeToString(data)}
		return img.DataURL(), nil
	}
	if strings.HasPrefix(mime, "text/plain") {
		return strings.TrimSpace(string(data)), nil
	}
	return "", fmt.Errorf("unsupported image type %s", mime)
}

func printTranscription(w io.Writer, result translation.TranscriptionResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if _, err := fmt.Fprintf(w, "Transcription:\n%s\n", result.Transcription); err != nil {
		return err
	}
	if result.Translation == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nTranslation:\n%s\n", result.Translation)
	return err
}
