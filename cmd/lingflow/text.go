package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/services/translation"
)

var (
	targetLang string
	promptType string
)

// textService is the part of the translation service the text commands use
type textService interface {
	Translate(ctx context.Context, text, lang string) (string, error)
	Correct(ctx context.Context, text, lang string) (string, error)
	GeneratePrompt(ctx context.Context, text, lang, typeTag string) (string, error)
}

type textOp func(ctx context.Context, svc textService, text string) (string, error)

func translateOp(ctx context.Context, svc textService, text string) (string, error) {
	return svc.Translate(ctx, text, targetLang)
}

func correctOp(ctx context.Context, svc textService, text string) (string, error) {
	return svc.Correct(ctx, text, targetLang)
}

func promptOp(ctx context.Context, svc textService, text string) (string, error) {
	return svc.GeneratePrompt(ctx, text, targetLang, promptType)
}

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text into the target language",
	Long:  "Translate text given as arguments, or read from stdin when no arguments are given.",
	RunE:  textCommand(translateOp),
}

var correctCmd = &cobra.Command{
	Use:   "correct [text...]",
	Short: "Fix grammar and spelling without changing the meaning",
	RunE:  textCommand(correctOp),
}

var promptCmd = &cobra.Command{
	Use:   "prompt [text...]",
	Short: "Turn a short description into an image-generation or image-edit prompt",
	Long: fmt.Sprintf(`Turn a short description into an image prompt.

--type selects the template: "generation" or "edit", optionally with a style
suffix such as "generation-anime".

Generation styles: %s
Edit styles: %s`,
		strings.Join(translation.GenerationStyles(), ", "),
		strings.Join(translation.EditStyles(), ", ")),
	RunE: textCommand(promptOp),
}

func init() {
	for _, cmd := range []*cobra.Command{translateCmd, correctCmd, promptCmd, ocrCmd, batchCmd} {
		cmd.Flags().StringVarP(&targetLang, "lang", "l", "en", "target language code")
	}
	promptCmd.Flags().StringVarP(&promptType, "type", "t", "generation", "prompt type tag")
	batchCmd.Flags().StringVarP(&promptType, "type", "t", "generation", "prompt type tag, used with --op prompt")
}

func textCommand(op textOp) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		text, err := readText(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return withDependencies(cmd, func(deps *app.Dependencies) error {
			return runText(cmd.Context(), deps.Translation, op, text, cmd.OutOrStdout())
		})
	}
}

func runText(ctx context.Context, svc textService, op textOp, text string, out io.Writer) error {
	result, err := op(ctx, svc, text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, result)
	return err
}

// readText joins the arguments, falling back to stdin when there are none
func readText(args []string, stdin io.Reader) (string, error) {
	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no text given")
	}
	return text, nil
}
