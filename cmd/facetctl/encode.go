package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/facetdex"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [query-string]",
	Short: "Print the canonical form of a query state",
	Long: `Decode a query state and print its canonical encoding. Malformed
parameters are dropped and reported on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

func runEncode(cmd *cobra.Command, args []string) error {
	v, err := parseState(args)
	if err != nil {
		return err
	}
	q, warnings := facetdex.DecodeQuery(v)
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	fmt.Fprintln(cmd.OutOrStdout(), facetdex.EncodeQuery(q).Encode())
	return nil
}
