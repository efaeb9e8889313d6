package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/config"
)

var cfg *config.Config

// exitError carries a process exit code out of a command. Zero means
// success, 2 a configuration problem, 3 a partial batch failure.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

var rootCmd = &cobra.Command{
	Use:   "resolver-cli",
	Short: "Multi-source domain and contact resolution pipeline",
	Long:  "Resolves SMB company rows to canonical domains and decision-maker contacts via tiered adapter routing, LLM judging, and validated contact discovery.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return &exitError{code: 2, msg: fmt.Sprintf("load config: %v", err)}
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return &exitError{code: 2, msg: fmt.Sprintf("init logger: %v", err)}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
