package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"civic-assistant-be/internal/config"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/pkg/events"
	pktNats "civic-assistant-be/pkg/nats"

	"github.com/fatih/color"
)

// turnwatch tails chat.turn_finalized events from JetStream, one line per turn.
func main() {
	cfg := config.Load()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, logger.NewZapLogger(cfg.App.LogFilePath, false))
	if err != nil {
		log.Fatalf("Error: Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := sub.Subscribe(ctx, "events."+events.TypeTurnFinalized, "turnwatch", printTurn)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer cc.Stop()

	color.Cyan("Watching finished turns on %s (Ctrl-C to quit)", cfg.App.NatsURL)
	<-ctx.Done()
}

func printTurn(_ context.Context, ev events.Event) error {
	p := ev.Payload()
	line := fmt.Sprintf("%s  %-9v %-10v conv=%v citations=%v chars=%v %vms",
		ev.Timestamp().Format("15:04:05"),
		p["state"], p["provider"], p["conversation_id"], p["citations"], p["answer_chars"], p["elapsed_ms"])

	switch p["state"] {
	case "finalized":
		color.Green("%s", line)
	case "cancelled":
		color.Yellow("%s", line)
	default:
		color.Red("%s", line)
	}
	return nil
}
