package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	chiTransport "github.com/kailas-cloud/facetdex/internal/transport/chi"
)

var queryCmd = &cobra.Command{
	Use:   "query [query-string]",
	Short: "Run a query state and print the result as JSON",
	Long: `Run a flat query state, as it appears in a catalog page URL, and print
the page, facet counts and warnings.

Example:
  facetctl query --file config/catalog.yaml 'product=sidekick&sort=title'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	v, err := parseState(args)
	if err != nil {
		return err
	}

	c, err := openClient(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Search(cmd.Context(), v)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(chiTransport.NewSearchResponse(&resp, nil))
}

func parseState(args []string) (url.Values, error) {
	if len(args) == 0 {
		return url.Values{}, nil
	}
	v, err := url.ParseQuery(strings.TrimPrefix(args[0], "?"))
	if err != nil {
		return nil, fmt.Errorf("parse query string: %w", err)
	}
	return v, nil
}
