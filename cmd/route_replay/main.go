package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/internal/repository/memory"
	"ai-chat-router-be/pkg/ai/classifier"
	"ai-chat-router-be/pkg/ai/continuation"
	"ai-chat-router-be/pkg/ai/router"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// route_replay replays a conversation, one message per line on stdin.
// Offline it runs the classifier, router and continuation detector locally;
// with -url it sends each line to a running gateway instead.
func main() {
	gateway := flag.String("url", "", "gateway base URL, e.g. http://localhost:3000/api (offline when empty)")
	apiKey := flag.String("key", os.Getenv("REPLAY_API_KEY"), "guest API key for -url mode")
	session := flag.String("session", uuid.NewString(), "session id")
	flag.Parse()

	color.Cyan("🚀 Route replay, session %s\n", *session)

	scanner := bufio.NewScanner(os.Stdin)
	if *gateway == "" {
		runOffline(scanner, *session)
		return
	}
	runOnline(scanner, *gateway, *apiKey, *session)
}

func runOffline(scanner *bufio.Scanner, session string) {
	ctx := context.Background()
	r := router.NewRouter(memory.NewEndpointRepository(), logger.NewNopLogger())

	previous := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parsed := router.Parse(line)
		decision := r.Route(ctx, session, parsed.CleanPrompt, parsed.Forced)
		signal := continuation.Detect(parsed.CleanPrompt, previous)

		color.Yellow("\n> %s", line)
		fmt.Printf("  classified: %s\n", classifier.Classify(parsed.CleanPrompt))
		color.Green("  routed:     %s (%s)", decision.Category, decision.Source)
		printSignal(signal, continuation.ReferencesContext(parsed.CleanPrompt, previous))

		// Offline there is no answer; the message itself stands in for it
		previous = parsed.CleanPrompt
	}
}

func runOnline(scanner *bufio.Scanner, gateway, apiKey, session string) {
	client := &http.Client{Timeout: 3 * time.Minute}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		color.Yellow("\n> %s", line)

		body, _ := json.Marshal(map[string]string{"session_id": session, "message": line})
		req, err := http.NewRequest(http.MethodPost, gateway+"/chat/v1/send", bytes.NewReader(body))
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(req)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var out struct {
			Message   string `json:"message"`
			ErrorType string `json:"error_type"`
			Data      struct {
				Route        router.Decision     `json:"route"`
				Continuation continuation.Signal `json:"continuation"`
				References   bool                `json:"references_context"`
				Reused       bool                `json:"reused_upstream_chat"`
			} `json:"data"`
		}
		if err := json.Unmarshal(respBody, &out); err != nil || resp.StatusCode != http.StatusOK {
			color.Red("  %s %s: %s", resp.Status, out.ErrorType, out.Message)
			continue
		}

		color.Green("  routed:     %s (%s)", out.Data.Route.Category, out.Data.Route.Source)
		printSignal(out.Data.Continuation, out.Data.References)
		fmt.Printf("  reused upstream chat: %v\n", out.Data.Reused)
	}
}

func printSignal(signal continuation.Signal, referencesContext bool) {
	verdict := color.New(color.FgRed).Sprint("new topic")
	if signal.IsContinuation {
		verdict = color.New(color.FgGreen).Sprint("continuation")
	}
	fmt.Printf("  signal:     %s, %d%% (%d/%d)\n", verdict, signal.Confidence, signal.Score, signal.MaxScore)
	fmt.Printf("  matched:    %s\n", signal.Reason())
	fmt.Printf("  references previous answer: %v\n", referencesContext)
}
