package settings

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the teamech-desktop CLI command. run is invoked with
// the resolved Config once arguments and flags have been parsed; it owns
// everything from pad loading onward.
func NewRootCommand(run func(Config) error) *cobra.Command {
	var (
		name      string
		class     string
		localPort uint16
		showHex   bool
	)

	cmd := &cobra.Command{
		Use:   "teamech-desktop ADDRESS PADFILE",
		Short: "Console client for the Teamech supervisory control relay",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Resolve(args[0], args[1], name, class, localPort, showHex)
			if err != nil {
				return err
			}
			return run(cfg)
		},
		SilenceUsage: true,
	}

	// -h is spoken for by --showhex below, so claim --help without a
	// shorthand before cobra's InitDefaultHelpFlag runs; it only adds the
	// "help" flag if one isn't already registered, and leaves an existing
	// registration's shorthand alone.
	cmd.Flags().Bool("help", false, "help for "+cmd.Name())

	cmd.Flags().StringVarP(&name, "name", "n", "human", "routing identifier this console subscribes as")
	cmd.Flags().StringVarP(&class, "class", "c", "supervisor", "non-unique role tag reported to the server")
	cmd.Flags().Uint16VarP(&localPort, "localport", "p", 0, "local UDP port to bind (0 = OS-assigned)")
	cmd.Flags().BoolVarP(&showHex, "showhex", "h", false, "append a hex dump of message bytes to UI lines")

	return cmd
}
