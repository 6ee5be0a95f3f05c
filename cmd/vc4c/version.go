// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

var versionStyle = color.New(color.FgGreen, color.Bold)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vc4c version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprint(w, "vc4c ")
		versionStyle.Fprint(w, version)
		fmt.Fprintf(w, " (%s %s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			fmt.Fprintf(w, "module %s %s\n", info.Main.Path, info.Main.Version)
		}
		return nil
	},
}
