package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/bencode"
)

func newCanonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "canon [file]",
		Short: "Rewrite Bencode in canonical form (sorted keys, no leading zeros)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := a.decoder().Decode(in)
			if err != nil {
				return err
			}
			out := bencode.Encode(v)
			if !bytes.Equal(in, out) {
				a.log.WithField("bytes", len(in)-len(out)).Debug("input was not canonical")
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// errNotCanonical is returned by verify --strict for valid but non-canonical input.
var errNotCanonical = errors.New("input is valid but not canonical")

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [file]",
		Short: "Check that input is well-formed Bencode, and whether it is canonical",
		Long: `verify parses the input and reports the first error with its byte offset.
Valid input is then checked for canonical form. With --strict, non-canonical
input is an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			opts := a.decodeOptions()
			opts.Strict = false
			if _, err := bencode.NewDecoder(opts).Parse(in); err != nil {
				return err
			}

			opts.Strict = true
			w := cmd.OutOrStdout()
			if _, err := bencode.NewDecoder(opts).Parse(in); err != nil {
				fmt.Fprintf(w, "valid, not canonical: %v\n", err)
				if a.v.GetBool("strict") {
					return errNotCanonical
				}
				return nil
			}
			fmt.Fprintln(w, "valid, canonical")
			return nil
		},
	}
}
