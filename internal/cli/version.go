package cli

import (
	"github.com/spf13/cobra"

	"github.com/MacroPower/kthreads/pkg/version"
)

func GetVersionString() string {
	return version.String()
}

// NewVersionCmd returns the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version of the kthreads CLI",
		Run: func(cc *cobra.Command, _ []string) {
			cc.Println(GetVersionString())
		},
	}
}
