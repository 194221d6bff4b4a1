package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"civic-assistant-be/internal/bootstrap"
	"civic-assistant-be/internal/config"
	"civic-assistant-be/internal/entity"
	"civic-assistant-be/internal/repository/contract"
	"civic-assistant-be/internal/repository/implementation"
	"civic-assistant-be/internal/repository/specification"
	"civic-assistant-be/pkg/database"
	"civic-assistant-be/pkg/embedding"
	"civic-assistant-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	session   int
	batchSize int
	chunkSize int
	overlap   int
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "embed",
	Short: "Chunk and embed bill full text that has no vectors yet",
	RunE:  run,
}

func init() {
	rootCmd.Flags().IntVar(&session, "session", 0, "legislative session year (0 = every session)")
	rootCmd.Flags().IntVar(&batchSize, "batch", 50, "bills per run")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", 1200, "chunk length in characters")
	rootCmd.Flags().IntVar(&overlap, "overlap", 150, "characters shared by neighbouring chunks")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "split but do not call the embedding provider")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	bills := implementation.NewBillRepository(db)
	chunks := implementation.NewBillChunkRepository(db)
	provider := bootstrap.NewEmbeddingProvider(cfg)

	ctx := cmd.Context()

	pending, err := bills.FindAll(ctx,
		specification.WithoutChunks{},
		specification.BySession{Year: session},
		specification.RecentFirst{},
		specification.Pagination{Limit: batchSize},
	)
	if err != nil {
		return fmt.Errorf("find bills: %w", err)
	}

	color.Cyan("Embedding %d bill(s)", len(pending))

	var failed int
	for _, bill := range pending {
		n, err := embedBill(ctx, provider, chunks, bill)
		if err != nil {
			failed++
			color.Red("  ✗ %s (%d): %v", bill.Number, bill.SessionYear, err)
			continue
		}
		color.Green("  ✓ %s (%d): %d chunk(s)", bill.Number, bill.SessionYear, n)
	}

	if failed > 0 {
		return fmt.Errorf("%d bill(s) failed", failed)
	}
	log.Println("Done.")
	return nil
}

func embedBill(ctx context.Context, provider embedding.EmbeddingProvider, repo contract.BillChunkRepository, bill *entity.Bill) (int, error) {
	parts := utils.SplitText(bill.FullText, chunkSize, overlap)
	if dryRun {
		return len(parts), nil
	}

	out := make([]*entity.BillChunk, 0, len(parts))
	for i, part := range parts {
		callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		resp, err := provider.Generate(callCtx, part, embedding.TaskRetrievalDocument)
		cancel()
		if err != nil {
			return 0, fmt.Errorf("chunk %d: %w", i, err)
		}
		if len(resp.Embedding.Values) != embedding.Dimensions {
			return 0, fmt.Errorf("chunk %d: got %d dimensions, want %d", i, len(resp.Embedding.Values), embedding.Dimensions)
		}

		out = append(out, &entity.BillChunk{
			BillId:      bill.Id,
			BillNumber:  bill.Number,
			SessionYear: bill.SessionYear,
			ChunkIndex:  i,
			Content:     part,
			Embedding:   resp.Embedding.Values,
		})
	}

	if err := repo.CreateBulk(ctx, out); err != nil {
		return 0, err
	}
	return len(out), nil
}
