package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"orders-service/internal/config"
	"orders-service/internal/database"
	"orders-service/internal/orders"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	backend := flag.String("db", "postgres", "store backend (postgres, mysql, or memory)")
	configPath := flag.String("config", "config.yaml", "path to the config file")
	dataFile := flag.String("file", "", "ndjson file to load before querying")
	reset := flag.Bool("reset", false, "drop and recreate the schema before loading")
	from := flag.String("from", "", "range query start, format "+orders.TimeFormat)
	to := flag.String("to", "", "range query end, format "+orders.TimeFormat)
	top := flag.Int("top", 0, "number of top purchasers to report (0 uses the config default)")

	flag.Parse()

	// .env is optional; real environment variables win either way.
	godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		exitCode = 1
		return
	}

	dsns := map[string]string{
		"postgres": cfg.Databases.Postgres,
		"mysql":    cfg.Databases.MySQL,
	}
	drivers := map[string]database.Driver{
		"postgres": &database.PostgresDriver{},
		"mysql":    &database.MySQLDriver{},
	}

	var store orders.Store
	if *backend == "memory" {
		store = orders.NewMemoryStore()
	} else {
		driver, ok := drivers[*backend]
		if !ok {
			log.Printf("Unsupported store backend: %s", *backend)
			exitCode = 1
			return
		}
		if err := driver.Connect(dsns[*backend]); err != nil {
			log.Printf("Failed to connect to %s: %v", *backend, err)
			exitCode = 1
			return
		}
		store = orders.NewSQLStore(driver)
	}
	defer store.Close()

	ctx := context.Background()

	if *reset {
		if err := store.Reset(ctx); err != nil {
			log.Printf("Failed to reset schema: %v", err)
			exitCode = 1
			return
		}
	}

	service, err := orders.NewOrdersService(ctx, store, log.Default())
	if err != nil {
		log.Printf("Failed to initialize service: %v", err)
		exitCode = 1
		return
	}

	if *dataFile != "" {
		stats, err := service.LoadDataFromFile(ctx, *dataFile)
		if err != nil {
			log.Printf("Load failed: %v", err)
			exitCode = 1
			return
		}
		if err := printJSON("load stats", stats); err != nil {
			exitCode = 1
			return
		}
	}

	if *from != "" || *to != "" {
		start, err := time.ParseInLocation(orders.TimeFormat, *from, time.UTC)
		if err != nil {
			log.Printf("Invalid -from timestamp: %v", err)
			exitCode = 1
			return
		}
		end, err := time.ParseInLocation(orders.TimeFormat, *to, time.UTC)
		if err != nil {
			log.Printf("Invalid -to timestamp: %v", err)
			exitCode = 1
			return
		}
		result, err := service.GetOrdersInTimeRange(ctx, start, end)
		if err != nil {
			log.Printf("Range query failed: %v", err)
			exitCode = 1
			return
		}
		if err := printJSON("orders in time range", result); err != nil {
			exitCode = 1
			return
		}
	}

	n := *top
	if n == 0 {
		n = cfg.QuerySettings.DefaultTopUsers
	}
	if n > 0 {
		result, err := service.GetTopUsersByProductPurchaseCount(ctx, n)
		if err != nil {
			log.Printf("Top purchasers query failed: %v", err)
			exitCode = 1
			return
		}
		if err := printJSON("top purchasers", result); err != nil {
			exitCode = 1
			return
		}
	}
}

func printJSON(title string, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal %s: %v", title, err)
		return err
	}
	fmt.Printf("%s:\n%s\n", title, out)
	return nil
}
