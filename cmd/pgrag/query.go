package pgrag

import (
	"fmt"
	"strings"

	"github.com/edgeflare/pgrag/pkg/rag"
	"github.com/edgeflare/pgrag/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer a question against the ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.IntP("query.topK", "k", 0, "Number of chunks to retrieve")

	viper.BindPFlags(f)
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	if v, _ := cmd.Flags().GetInt("query.topK"); v > 0 {
		cfg.Query.TopK = v
	}

	ctx := cmd.Context()
	question := strings.Join(args, " ")

	st, err := store.NewPostgres(ctx, cfg.Store.ConnString, store.Config{
		TableName:  cfg.Store.TableName,
		Dimensions: cfg.Store.Dimensions,
	}, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, generator := newProvider(logger)

	opts := []rag.Option{rag.WithLogger(logger)}
	if cfg.Query.TopK > 0 {
		opts = append(opts, rag.WithTopK(cfg.Query.TopK))
	}
	if cfg.Query.EmptyContextShortCircuit {
		opts = append(opts, rag.WithEmptyContextShortCircuit())
	}

	engine := rag.New(st, embedder, generator, opts...)
	answer, err := engine.Answer(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range answer.Sources {
			title := s.Title
			if title == "" {
				title = s.Source
			}
			fmt.Printf("  %-40s distance=%.4f\n", title, s.Distance)
		}
	}
	return nil
}
