package main

import (
	"fmt"

	"voicebox-go/services/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var plansCmd = &cobra.Command{
	Use:   "plans [board]",
	Short: "List embedded board plans, or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, name := range config.Boards() {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		p, err := config.Lookup(args[0])
		if err != nil {
			return err
		}
		raw, err := yaml.Marshal(p)
		if err != nil {
			return err
		}
		_, err = out.Write(raw)
		return err
	},
}
