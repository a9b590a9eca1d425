package main

import (
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"esg-folio/internal/api"
	"esg-folio/internal/db"
	"esg-folio/internal/logger"
	"esg-folio/internal/marketdata"
	"esg-folio/internal/universe"
)

var version = "dev"

//go:embed web/*
var webFS embed.FS

func main() {
	port := flag.Int("port", 8750, "HTTP server port")
	scoreFile := flag.String("scores", "", "path to the ESG score CSV (overrides saved config)")
	flag.Parse()

	logger.Banner(version)

	database, err := db.Open()
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	cfg := database.LoadConfig()
	if *scoreFile != "" {
		cfg.ScoreFile = *scoreFile
		database.SaveConfig(cfg)
	}

	universeLoader := universe.NewLoader(database)
	priceLoader := marketdata.NewLoader(database)

	srv := api.NewServer(cfg, database, universeLoader, priceLoader, version)

	// Combine API + embedded dashboard into a single handler.
	apiHandler := srv.Handler()
	webContent, _ := fs.Sub(webFS, "web")
	fileServer := http.FileServer(http.FS(webContent))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apiHandler.ServeHTTP(w, r)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}
		if _, err := fs.Stat(webContent, path); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}
		// SPA fallback
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
