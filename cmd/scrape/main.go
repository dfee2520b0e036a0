// Command scrape runs one search from the command line and prints the
// envelope as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/ps-vitor/car-comparator/internal/app"
	"github.com/ps-vitor/car-comparator/internal/config"
	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

func main() {
	site := flag.String("site", "", "source id, or \"all\"; see -list")
	brand := flag.String("brand", "", "vehicle make")
	model := flag.String("model", "", "vehicle model (optional)")
	maxPrice := flag.Float64("max-price", 0, "price ceiling, 0 for none")
	configPath := flag.String("config", "", "config file (default $CARSEARCH_CONFIG or configs/app.yaml)")
	list := flag.Bool("list", false, "list supported sources and exit")
	debug := flag.Bool("debug", false, "log extraction details")
	flag.Parse()

	log := logger.NewWithWriter(os.Stderr, "[car-scrape] ")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}
	log.SetDebug(*debug || cfg.App.Debug)
	// a one-shot run keeps nothing between invocations
	cfg.Telemetry.Sinks = []string{"log"}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Errorf("bootstrap: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	if *list {
		printJSON(a.Collectors.Descriptors())
		return
	}

	var out any
	var success bool
	if strings.EqualFold(*site, "all") {
		batch := a.Service.SearchAll(ctx, "cli", *brand, *model, *maxPrice, nil)
		out, success = batch, batch.Success
	} else {
		var resp domain.Response
		q, err := domain.NewQuery(*site, *brand, *model, *maxPrice)
		if err != nil {
			resp = domain.Failed(*site, strings.TrimSpace(*brand+" "+*model), err)
		} else {
			resp = a.Service.Search(ctx, "cli", q)
		}
		out, success = resp, resp.Success
	}

	printJSON(out)
	if !success {
		a.Close()
		os.Exit(2)
	}
}

func printJSON(v any) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling to JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}
