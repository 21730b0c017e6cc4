// Command shippingd runs the storefront logistics API and its pool maintenance jobs.
//
// @title                       Storefront Logistics API
// @version                     1.0
// @description                 Delhivery shipment orchestration: waybill pool, shipments, warehouses and scan ingestion.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/storefront/logistics/docs"
)

var version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "shippingd",
	Short:         "Storefront logistics - Delhivery shipments, waybill pool and scan ingestion",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, waybillsCmd)
}
