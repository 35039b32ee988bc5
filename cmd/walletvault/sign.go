package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/internal/eth"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign the login challenge or a file with a private key",
	Long: `Sign produces the signatures walletvault checks.

Without --file it signs --message as an Ethereum personal message, the
way a wallet answers the login challenge. With --file it signs the
SHA-256 hash of the file content and, with --write, stores the result
next to the file as <file>.sig ready for upload.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging("dev", "warn")
		return nil
	},
	RunE: runSign,
}

func init() {
	signCmd.Flags().String("key", "", "hex encoded secp256k1 private key (env: WALLETVAULT_SIGN_KEY)")
	signCmd.Flags().String("message", "", "message to sign as a personal message")
	signCmd.Flags().String("file", "", "file whose content hash to sign")
	signCmd.Flags().Bool("write", false, "write the signature to <file>.sig")
	signCmd.MarkFlagsMutuallyExclusive("message", "file")

	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = os.Getenv("WALLETVAULT_SIGN_KEY")
	}
	message, _ := cmd.Flags().GetString("message")
	file, _ := cmd.Flags().GetString("file")
	write, _ := cmd.Flags().GetBool("write")

	addr, err := eth.AddressOf(key)
	if err != nil {
		return err
	}

	var sig string
	switch {
	case file != "":
		sig, err = signFile(file, key, write)
	case message != "":
		sig, err = eth.Sign(eth.PersonalMessageHash(message), key)
	default:
		return errors.New("one of --message or --file is required")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "address:   %s\n", addr.Hex())
	_, _ = fmt.Fprintf(out, "signature: %s\n", sig)
	return nil
}

// signFile signs the content hash of path and optionally stores the
// signature as its ".sig" sibling.
func signFile(path, key string, write bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%s is empty and can never verify", path)
	}

	sig, err := eth.Sign(eth.ContentHash(data), key)
	if err != nil {
		return "", err
	}

	if write {
		if err := os.WriteFile(path+core.SignatureSuffix, []byte(sig), 0o644); err != nil {
			return "", fmt.Errorf("write signature: %w", err)
		}
	}

	return sig, nil
}
