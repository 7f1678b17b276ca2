// Command explore is an interactive shell for loading a query, running
// searches against it, and inspecting the ranked compositions found.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/kneasle/monument/internal/config"
	"github.com/kneasle/monument/internal/logger"
	"github.com/kneasle/monument/internal/orchestrator"
	"github.com/kneasle/monument/internal/queryfile"
	"github.com/kneasle/monument/internal/render"
	"github.com/kneasle/monument/internal/resultwriter"
)

func main() {
	configPath := flag.String("config", "config/compose/config.yaml", "path to configuration file")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	lgr := logger.NopLogger{}

	var lastResults []render.Comp

	fmt.Println("monument interactive explorer")
	fmt.Println("Available commands: load <query.yaml>/show <rank>/export <path>/exit")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("explore> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println("Aborted")
				continue
			}
			break
		}
		line.AppendHistory(input)

		args := strings.Fields(strings.TrimSpace(input))
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "load":
			if len(args) < 2 {
				fmt.Println("Usage: load <query.yaml>")
				continue
			}
			q, err := queryfile.Load(args[1])
			if err != nil {
				fmt.Printf("failed to load query: %v\n", err)
				continue
			}
			if err := q.Validate(); err != nil {
				fmt.Printf("invalid query: %v\n", err)
				continue
			}
			comps, err := orchestrator.RunQuery(context.Background(), q, cfg.Search, lgr)
			if err != nil {
				fmt.Printf("search failed: %v\n", err)
				continue
			}
			lastResults = comps
			fmt.Printf("found %d compositions\n", len(comps))

		case "show":
			if len(args) < 2 {
				fmt.Println("Usage: show <rank>")
				continue
			}
			rank, err := strconv.Atoi(args[1])
			if err != nil || rank < 0 || rank >= len(lastResults) {
				fmt.Printf("rank %s out of range (have %d results)\n", args[1], len(lastResults))
				continue
			}
			c := lastResults[rank]
			fmt.Printf("length=%d score=%.2f avg=%.4f rotation=%d start=%d calls=%s\n",
				c.Length, c.Score, c.AvgScore, c.Rotation, c.StartIdx, c.CallString)

		case "export":
			if len(args) < 2 {
				fmt.Println("Usage: export <path>")
				continue
			}
			if err := resultwriter.WriteAll(args[1], lastResults); err != nil {
				fmt.Printf("export failed: %v\n", err)
				continue
			}
			fmt.Printf("wrote %d compositions to %s\n", len(lastResults), args[1])

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", args[0])
		}
	}
}
