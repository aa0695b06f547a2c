package pgrag

import (
	"fmt"

	"github.com/edgeflare/pgrag/pkg/store"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the vector store schema",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()
	st, err := store.NewPostgres(ctx, cfg.Store.ConnString, store.Config{
		TableName:  cfg.Store.TableName,
		Dimensions: cfg.Store.Dimensions,
	}, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ResetSchema(ctx); err != nil {
		return err
	}
	fmt.Printf("schema %s reset\n", cfg.Store.TableName)
	return nil
}
