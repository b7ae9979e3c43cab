package main

import (
	"context"
	"os"

	"github.com/shopspring/decimal"
)

func main() {
	// money totals are emitted as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
