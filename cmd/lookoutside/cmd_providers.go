package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/store"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the provider and store backend names accepted in config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			geocoding, weather, airQuality := client.NewRegistry().Names()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "geocoding:   %s\n", strings.Join(geocoding, ", "))
			fmt.Fprintf(out, "weather:     %s\n", strings.Join(weather, ", "))
			fmt.Fprintf(out, "air_quality: %s\n", strings.Join(airQuality, ", "))
			fmt.Fprintf(out, "store:       %s\n", strings.Join(store.Backends(), ", "))
			return nil
		},
	}
}
