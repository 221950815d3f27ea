package cmd

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "zvezdin",
	Short: "A kline-driven trading strategy backtester",
	Long: `Zvezdin replays historical klines through a matching simulator and a
pluggable strategy, tracking orders with partial take profits, trailing
stops and an emergency breaker for abnormal volatility.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; environment beats file values either way.
		godotenv.Load()

		log.SetOutput(os.Stderr)
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else if lvl, err := log.ParseLevel(os.Getenv("ZVEZDIN_LOG_LEVEL")); err == nil {
			log.SetLevel(lvl)
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
