package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MacroPower/kthreads/pkg/selftest"
)

// NewSuitesCmd returns the suites command.
func NewSuitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List the self-test suites",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			out := cc.OutOrStdout()

			renderer := lipgloss.NewRenderer(out)
			renderer.SetColorProfile(colorProfile(out))

			suites := selftest.Suites()

			width := 0
			for _, s := range suites {
				width = max(width, lipgloss.Width(s.Name))
			}

			name := renderer.NewStyle().Bold(true).Width(width + 2)

			for _, s := range suites {
				_, err := fmt.Fprintf(out, "%s%s\n", name.Render(s.Name), s.Description)
				if err != nil {
					return fmt.Errorf("write suites: %w", err)
				}
			}

			return nil
		},
	}
}
