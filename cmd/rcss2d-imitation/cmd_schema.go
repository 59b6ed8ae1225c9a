package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/montplusa/rcss2d-imitation/pkg/features"
	"github.com/montplusa/rcss2d-imitation/pkg/normalize"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

var showNormalized bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the feature and output layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "inputs (%d):\n", features.InputDimension())
		for i, name := range features.InputFeatures() {
			fmt.Fprintf(w, "  %3d %s\n", i, name)
		}
		fmt.Fprintln(w, "outputs:")
		fmt.Fprintf(w, "  %s: %s\n", features.ClassificationColumn, strings.Join(features.CommandTypes(), ", "))
		for _, name := range features.RegressionColumns() {
			fmt.Fprintf(w, "  %s\n", name)
		}

		if !showNormalized {
			return nil
		}
		fmt.Fprintln(w, "normalized columns:")
		for _, t := range table.Types() {
			cols := normalize.Columns(t)
			if len(cols) == 0 {
				continue
			}
			names := make([]string, len(cols))
			for i, c := range cols {
				names[i] = fmt.Sprintf("%q", c.String())
			}
			fmt.Fprintf(w, "  %s (%d): %s\n", t, len(cols), strings.Join(names, " "))
		}
		return nil
	},
}

var writeConfig string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeConfig != "" {
			if err := cfg.Save(writeConfig); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", writeConfig)
			return nil
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&showNormalized, "normalized", false, "Also list the normalized columns per table type")
	configCmd.Flags().StringVar(&writeConfig, "write", "", "Write the configuration to this file instead")
}
