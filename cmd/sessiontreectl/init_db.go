package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "admin",
	Short:   "Create (or migrate) the database at --db",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tree := openTree()
		defer tree.Close()
		fmt.Println("database ready")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
