// taskctl is an operator CLI that works directly against the task store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/pkg/message"
	"taskhub/pkg/notify"
	"taskhub/pkg/pricing"
	"taskhub/pkg/task"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}

	// quote needs no database
	if os.Args[1] == "quote" {
		handleQuote(pricing.NewCalculator(cfg.Pricing.FeeRate), os.Args[2:])
		return
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		fatal("connect: %v", err)
	}
	defer pool.Close()

	tasks := task.NewPgStore(pool)
	messages := message.NewPgStore(pool)
	notes := notify.NewPgStore(pool)
	calc := pricing.NewCalculator(cfg.Pricing.FeeRate)

	switch os.Args[1] {
	case "task":
		handleTask(ctx, tasks, calc, os.Args[2:])
	case "init":
		handleInit(ctx, tasks, messages, notes)
	case "summary":
		handleSummary(ctx, tasks)
	default:
		usage()
		os.Exit(1)
	}
}

func handleTask(ctx context.Context, store task.Store, calc pricing.Calculator, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: taskctl task <create|list|get|assign|status|delete|history>")
		os.Exit(1)
	}

	switch args[0] {
	case "create":
		flags := parseFlags(args[1:])
		in := task.Input{
			Title:       flags["title"],
			Description: flags["description"],
			ClientID:    flags["client"],
			CategoryID:  flags["category"],
			AddressID:   flags["address"],
			Location:    flags["location"],
			Priority:    task.Priority(flags["priority"]),
		}
		in.PriceGHS, _ = strconv.ParseFloat(flags["price"], 64)
		in.DurationEstMins, _ = strconv.Atoi(flags["duration"])
		if v := flags["at"]; v != "" {
			at, err := time.Parse(time.RFC3339, v)
			if err != nil {
				fatal("parse --at: %v", err)
			}
			in.ScheduledAt = at
		}
		in.IsUrgent = flags["urgent"] == "true"
		if err := task.ValidateInput(&in); err != nil {
			fatal("%v", err)
		}
		created, err := store.Create(ctx, task.NewFromInput(&in, calc.Fee(in.PriceGHS)))
		if err != nil {
			fatal("create task: %v", err)
		}
		printJSON(created)

	case "list":
		flags := parseFlags(args[1:])
		f := task.Filter{
			Status:     task.Status(flags["status"]),
			CategoryID: flags["category"],
			ClientID:   flags["client"],
			TaskerID:   flags["tasker"],
			Query:      flags["q"],
		}
		p := task.PageRequest{
			Page:  intFlag(flags, "page", 1),
			Limit: intFlag(flags, "limit", task.DefaultLimit),
		}
		page, err := store.List(ctx, f, p)
		if err != nil {
			fatal("list tasks: %v", err)
		}
		if flags["format"] == "short" {
			printShortTasks(page)
		} else {
			printJSON(page)
		}

	case "get":
		if len(args) < 2 {
			fatal("Usage: taskctl task get <id>")
		}
		t, err := store.Get(ctx, args[1])
		if err != nil {
			fatal("get task: %v", err)
		}
		printJSON(t)

	case "assign":
		if len(args) < 3 {
			fatal("Usage: taskctl task assign <id> <taskerId>")
		}
		t, err := store.Assign(ctx, args[1], args[2])
		if err != nil {
			fatal("assign task: %v", err)
		}
		printJSON(t)

	case "status":
		if len(args) < 3 {
			fatal("Usage: taskctl task status <id> <status> [note]")
		}
		note := ""
		if len(args) > 3 {
			note = strings.Join(args[3:], " ")
		}
		next := task.Status(args[2])
		if !next.Valid() {
			fatal("unknown status %q", args[2])
		}
		t, err := store.UpdateStatus(ctx, args[1], next, note)
		if err != nil {
			fatal("update status: %v", err)
		}
		printJSON(t)

	case "delete":
		if len(args) < 2 {
			fatal("Usage: taskctl task delete <id>")
		}
		if err := store.Delete(ctx, args[1]); err != nil {
			fatal("delete task: %v", err)
		}
		fmt.Println("deleted", args[1])

	case "history":
		if len(args) < 2 {
			fatal("Usage: taskctl task history <id>")
		}
		entries, err := store.History(ctx, args[1])
		if err != nil {
			fatal("task history: %v", err)
		}
		printJSON(entries)

	default:
		fmt.Fprintln(os.Stderr, "Usage: taskctl task <create|list|get|assign|status|delete|history>")
		os.Exit(1)
	}
}

func handleQuote(calc pricing.Calculator, args []string) {
	if len(args) < 1 {
		fatal("Usage: taskctl quote <priceGHS>")
	}
	price, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fatal("parse price: %v", err)
	}
	printJSON(calc.Quote(price))
}

func handleInit(ctx context.Context, tasks task.Store, messages message.Store, notes notify.Store) {
	if err := tasks.EnsureTable(ctx); err != nil {
		fatal("ensure tasks table: %v", err)
	}
	if err := messages.EnsureTable(ctx); err != nil {
		fatal("ensure messages table: %v", err)
	}
	if err := notes.EnsureTable(ctx); err != nil {
		fatal("ensure notifications table: %v", err)
	}
	fmt.Println("tables ready")
}

func handleSummary(ctx context.Context, store task.Store) {
	total, err := store.Count(ctx)
	if err != nil {
		fatal("count tasks: %v", err)
	}
	open, err := store.List(ctx, task.Filter{Status: task.StatusCreated}, task.PageRequest{Limit: 1})
	if err != nil {
		fatal("count open tasks: %v", err)
	}
	fmt.Printf("tasks: %d total, %d waiting for a tasker\n", total, open.Total)
}

func printShortTasks(page *task.Page) {
	for _, t := range page.Items {
		tasker := "-"
		if t.TaskerID != nil {
			tasker = *t.TaskerID
		}
		fmt.Printf("%s  %-12s %-8s GHS %-8s %s\n",
			t.ID[:8], t.Status, t.Priority, pricing.FormatGHS(t.PriceGHS), tasker)
	}
	fmt.Printf("page %d/%d (%d total)\n", page.Page, page.TotalPages, page.Total)
}

func parseFlags(args []string) map[string]string {
	flags := make(map[string]string)
	for _, a := range args {
		if !strings.HasPrefix(a, "--") {
			continue
		}
		kv := strings.SplitN(strings.TrimPrefix(a, "--"), "=", 2)
		if len(kv) == 2 {
			flags[kv[0]] = kv[1]
		} else {
			flags[kv[0]] = "true"
		}
	}
	return flags
}

func intFlag(flags map[string]string, key string, defaultVal int) int {
	v, ok := flags[key]
	if !ok {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("marshal: %v", err)
	}
	fmt.Println(string(out))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: taskctl <command>

Commands:
  task <create|list|get|assign|status|delete|history>
  quote <priceGHS>
  init
  summary`)
}
