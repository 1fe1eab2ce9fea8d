package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/wesm/strend/internal/apikey"
	"github.com/wesm/strend/internal/output"
	"github.com/wesm/strend/internal/search"
	"github.com/wesm/strend/internal/shodan"
)

var initCmd = &cobra.Command{
	Use:   "init [API key]",
	Short: "Validate and store your Shodan API key",
	Long: `Validate a Shodan API key and store it for later searches.

The key is written to ~/.shodan/api_key when that directory exists, or to
~/.config/shodan/api_key otherwise, the same place the official Shodan CLI
uses. Without an argument the key is prompted for.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			if !output.IsTerminal(os.Stdin) {
				return errors.New("API key argument required when stdin is not a terminal")
			}
			var err error
			if key, err = promptAPIKey(); err != nil {
				return err
			}
		}

		store, err := apikey.NewStore(cfg.API.KeyDir)
		if err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		return runInit(cmd.Context(), key, newClient(key), store, newPrinter(cmd))
	},
}

func promptAPIKey() (string, error) {
	var key string
	input := huh.NewInput().
		Title("Shodan API key").
		Description("Find it at https://account.shodan.io").
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("API key is required")
			}
			return nil
		})
	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", context.Canceled
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	return key, nil
}

// keyValidator checks a key against the API.
type keyValidator interface {
	ValidateKey(ctx context.Context) error
}

// runInit stores key only when v, a client built with it, accepts it.
func runInit(ctx context.Context, key string, v keyValidator, store *apikey.Store, p *output.Printer) error {
	if err := v.ValidateKey(ctx); err != nil {
		return errors.New(describeKeyError(err))
	}
	if err := store.Save(key); err != nil {
		return fmt.Errorf("save API key: %w", err)
	}
	logger.Info("api key stored", "path", store.Path())
	p.Success("Successfully initialized API key")
	p.Info("Stored in %s", store.Path())
	return nil
}

// describeKeyError prefers the API's own message for a rejected key.
func describeKeyError(err error) string {
	var statusErr *shodan.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message("Invalid API key")
	}
	return search.Describe(err)
}

func init() {
	rootCmd.AddCommand(initCmd)
}
