package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"civic-assistant-be/internal/dto"
	"civic-assistant-be/pkg/llm"
	"civic-assistant-be/pkg/rag/stream"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	baseURL        string
	token          string
	provider       string
	conversationID string
	noStream       bool
)

var rootCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the civic assistant a question and print the streamed answer",
	Long: `Sends one question to POST /api/chat and prints the answer as it streams.

Ctrl-C stops the answer; the partial text is kept in the conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "url", envOr("ASK_BASE_URL", "http://localhost:3000/api"), "API base URL")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("ASK_TOKEN"), "bearer token")
	rootCmd.Flags().StringVar(&provider, "provider", "", "LLM provider override")
	rootCmd.Flags().StringVar(&conversationID, "conversation", "", "continue an existing conversation")
	rootCmd.Flags().BoolVar(&noStream, "no-stream", false, "wait for the whole answer")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	streaming := !noStream

	body, err := json.Marshal(dto.ChatRequest{
		Prompt:         strings.Join(args, " "),
		Stream:         &streaming,
		Provider:       provider,
		ConversationId: conversationID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if !streaming {
		var out struct {
			Data dto.ChatResponse `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return err
		}
		if out.Data.Message != nil {
			fmt.Println(out.Data.Message.Content)
			printFooter(out.Data.Message)
		}
		return nil
	}

	stop := watchInterrupt()
	defer stop()

	var final *stream.Message
	deltas := llm.NewSSEStream(resp.Body, func(payload []byte) (string, bool, error) {
		var ev stream.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return "", false, err
		}
		switch ev.Type {
		case stream.EventStatus:
			color.New(color.Faint).Fprintf(os.Stderr, "%s\n", ev.Status)
		case stream.EventError:
			color.Red("%s", ev.Error)
		case stream.EventDone:
			final = ev.Message
		case stream.EventRelated:
			if ev.Message != nil {
				final = ev.Message
			}
		}
		return ev.Delta, false, nil
	})
	defer deltas.Close()

	for deltas.Next() {
		fmt.Print(deltas.Delta())
	}
	fmt.Println()
	if err := deltas.Err(); err != nil {
		return err
	}

	if final != nil {
		printFooter(final)
	}
	color.New(color.Faint).Fprintf(os.Stderr, "conversation %s\n", conversationID)
	return nil
}

// watchInterrupt turns the first Ctrl-C into a cancel request for the open turn.
func watchInterrupt() func() {
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sig, os.Interrupt)

	go func() {
		select {
		case <-sig:
			if err := cancelTurn(); err != nil {
				color.Red("cancel failed: %v", err)
			}
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sig)
		close(done)
	}
}

func cancelTurn() error {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/chat/"+conversationID+"/cancel", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func printFooter(m *stream.Message) {
	if m.State == stream.StateCancelled {
		color.Yellow("(stopped)")
	}
	if m.Reasoning != "" {
		color.New(color.Faint).Printf("Why these sources: %s\n", m.Reasoning)
	}
	for _, c := range m.Citations {
		color.Cyan("  • %s %s [%s]", c.Identifier, c.Title, c.Status)
	}
	for _, w := range m.WebCitations {
		color.Blue("  [%d] %s %s", w.Number, w.Title, w.URL)
	}
	if len(m.Related) > 0 {
		color.New(color.Faint).Println("Related:")
		for _, r := range m.Related {
			color.New(color.Faint).Printf("  %s %s\n", r.Identifier, r.Title)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
