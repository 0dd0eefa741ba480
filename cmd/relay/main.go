// Command relay runs the chatrelay server and a reference client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatrelay",
		Short:         "Encrypted chat relay server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), genconfigCmd(), clientCmd())
	return root
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════════╗")
	fmt.Println("║               chatrelay relay server              ║")
	fmt.Println("║     three-word identities, relayed encryption     ║")
	fmt.Println("╚═══════════════════════════════════════════════════╝")
	fmt.Println()
}
