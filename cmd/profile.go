package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccheshirecat/ghostoxide/internal/config"
	"github.com/ccheshirecat/ghostoxide/internal/stealth"
)

func newProfileCmd() *cobra.Command {
	var showScript bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the fingerprint profile the current configuration produces.",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := buildProfile(config.Get().Stealth)

			out, err := json.MarshalIndent(profile, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if showScript {
				script, err := stealth.BuildBootstrap(profile)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), script)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showScript, "script", false, "also print the generated bootstrap script")
	return cmd
}
