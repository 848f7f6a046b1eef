package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dead-stock/internal/classification"
	"github.com/Veraticus/dead-stock/internal/cli"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show which supplier a title and SKU resolve to",
		Long: `Run the supplier classifier on a single listing. Useful for checking
how a SKU convention is read before running a scan.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")
			sku, _ := cmd.Flags().GetString("sku")
			image, _ := cmd.Flags().GetString("image")

			result := classification.NewDefault().Classify(title, sku, image)

			var b strings.Builder
			fmt.Fprintf(&b, "Supplier:    %s\n", result.SupplierName)
			if result.WrappedSupplier != "" {
				fmt.Fprintf(&b, "Wraps:       %s\n", result.WrappedSupplier)
			}
			fmt.Fprintf(&b, "Supplier ID: %s\n", deref(result.SupplierID))
			fmt.Fprintf(&b, "Tool:        %s", deref(result.AutomationTool))

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Classification", b.String()))
			return nil
		},
	}

	cmd.Flags().String("title", "", "Listing title")
	cmd.Flags().String("sku", "", "Listing SKU")
	cmd.Flags().String("image", "", "Listing image URL")

	return cmd
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
