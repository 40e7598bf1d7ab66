package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"whatsapp-chat-analyzer/internal/bot"
)

func main() {
	var (
		serverAddr   string
		window       string
		participants string
		wordLength   int
		interval     time.Duration
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&window, "window", "", "Time window: all, week, month, year (server default if empty)")
	flag.StringVar(&participants, "participants", "", "Comma-separated participant names (all if empty)")
	flag.IntVar(&wordLength, "word-length", -1, "Exact word length for the vocabulary, 0 for words of 3+ letters (server default if negative)")
	flag.DurationVar(&interval, "interval", 2*time.Second, "Polling interval")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one file path is required. Usage: client [flags] <chat.txt|chat.zip>")
	}
	path := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := bot.NewServerClient(serverAddr, 60*time.Second)

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Не удалось открыть файл %s: %v", path, err)
	}
	startResp, err := client.StartTask(ctx, bot.DocumentFile{Name: filepath.Base(path), Content: file})
	_ = file.Close()
	if err != nil {
		log.Fatalf("Не удалось отправить файл: %v", err)
	}
	taskID := startResp.TaskID
	fmt.Fprintf(os.Stderr, "Задача создана с идентификатором: %s\n", taskID)

	// Опрос статуса задачи
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Fatal("Прервано")
		case <-ticker.C:
		}

		status, err := client.GetTaskStatus(ctx, taskID)
		if err != nil {
			log.Fatalf("Не удалось опросить статус задачи: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Статус задачи: %s\n", status.Status)

		switch status.Status {
		case "completed":
			fmt.Fprintf(os.Stderr, "Разобрано сообщений: %d, участники: %s\n",
				status.MessageCount, strings.Join(status.Participants, ", "))
			printResult(ctx, client, taskID, bot.ResultQuery{
				Window:       window,
				Participants: splitNames(participants),
				WordLength:   optionalInt(wordLength),
			})
			return
		case "failed":
			fmt.Fprintf(os.Stderr, "Задача не выполнена: %s\n", status.ErrorMessage)
			os.Exit(1)
		case "pending", "processing":
			continue
		default:
			log.Fatalf("Неизвестный статус задачи: %s", status.Status)
		}
	}
}

func printResult(ctx context.Context, client *bot.ServerClient, taskID string, query bot.ResultQuery) {
	result, err := client.GetTaskResult(ctx, taskID, query)
	if err != nil {
		log.Fatalf("Не удалось получить результат: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Не удалось вывести результат: %v", err)
	}
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func optionalInt(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}
