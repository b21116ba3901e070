package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quantumauth-io/quantum-balances/internal/balances"
	"github.com/quantumauth-io/quantum-balances/internal/constants"
)

type flags struct {
	decimals int
	exact    bool
	digits   int
	reverse  bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "format-balance <amount>",
		Short: "Format a hex base-unit amount as a decimal balance",
		Long: "Format a 0x-prefixed base-unit amount for display.\n" +
			"With --reverse the argument is a decimal display value and the hex base-unit amount is printed.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := run(args[0], f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, res)
			return err
		},
	}
	cmd.SetOut(out)
	bindFlags(cmd.Flags(), &f)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.IntVarP(&f.decimals, "decimals", "d", constants.NativeDecimals, "number of decimals of the asset")
	fs.BoolVarP(&f.exact, "exact", "e", false, "print the exact value without truncation")
	fs.IntVarP(&f.digits, "digits", "s", constants.DefaultSignificantDigits, "significant digits kept when truncating")
	fs.BoolVarP(&f.reverse, "reverse", "r", false, "parse a decimal display value and print its hex base-unit amount")
}

func run(arg string, f flags) (string, error) {
	if f.reverse {
		amount, err := balances.ParseUnits(arg, f.decimals)
		if err != nil {
			return "", err
		}
		return balances.ToHex(amount), nil
	}

	return balances.Format(arg, f.decimals,
		balances.WithTruncate(!f.exact),
		balances.WithSignificantDigits(f.digits),
	)
}
