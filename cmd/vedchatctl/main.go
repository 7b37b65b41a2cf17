package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"vedchat/internal/codec"
	"vedchat/internal/config"
	"vedchat/internal/evict"
	"vedchat/internal/kv"
	"vedchat/internal/lock"
	"vedchat/internal/session"
	"vedchat/internal/store"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	st, cleanup := openStore(sessionName)
	defer cleanup()

	switch args[0] {
	case "topics":
		cmdTopics(st, *jsonFlag)
	case "dump":
		cmdDump(st)
	case "stats":
		cmdStats(st, *jsonFlag)
	case "clear":
		st.ClearAll()
		fmt.Println("All conversations cleared.")
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: vedchatctl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  topics    List stored conversations")
	fmt.Fprintln(os.Stderr, "  dump      Print the full stored set as JSON")
	fmt.Fprintln(os.Stderr, "  stats     Show storage statistics")
	fmt.Fprintln(os.Stderr, "  clear     Delete all conversations")
}

// openStore opens the session's storage directly. The session lock keeps a
// running client and this tool from writing at the same time.
func openStore(sessionName string) (*store.Store, func()) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := session.EnsureDir(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	lk, err := lock.Acquire(session.Dir(sessionName))
	var held *lock.HeldError
	if errors.As(err, &held) {
		fmt.Fprintf(os.Stderr, "error: session %q is in use by pid %d\n", sessionName, held.PID)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	kvs, err := kv.OpenSQLite(session.DBPath(sessionName), cfg.Storage.Capacity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	lim := evict.Limits{
		TopicLimit:       cfg.Storage.TopicLimit,
		MessagesPerTopic: cfg.Storage.MessagesPerTopic,
		ByteBudget:       cfg.Storage.ByteBudget,
	}
	st := store.New(kvs, codec.New(nil), nil, zap.NewNop(), lim)

	return st, func() {
		_ = kvs.Close()
		_ = lk.Release()
	}
}

func cmdTopics(st *store.Store, jsonOut bool) {
	topics := st.Topics()
	if jsonOut {
		outputJSON(topics)
		return
	}
	if len(topics) == 0 {
		fmt.Println("No conversations found.")
		return
	}
	active := st.ActiveID()
	for _, t := range topics {
		marker := " "
		if t.ID == active {
			marker = "*"
		}
		created := time.UnixMilli(t.CreatedAt).Format("2006-01-02 15:04")
		fmt.Printf("%s %-36s %-20s %4d msgs  %s\n", marker, t.ID, t.Title, len(t.Messages), created)
	}
}

func cmdDump(st *store.Store) {
	outputJSON(st.Topics())
}

func cmdStats(st *store.Store, jsonOut bool) {
	stats := st.Stats()
	if jsonOut {
		outputJSON(stats)
		return
	}
	fmt.Printf("Topics:   %d\n", stats.Topics)
	fmt.Printf("Messages: %d\n", stats.Messages)
	fmt.Printf("Bytes:    %d\n", stats.Bytes)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
