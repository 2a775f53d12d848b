// ABOUTME: Fake chat backend for local development of the widget engine
// ABOUTME: Serves the widget REST surface in memory with canned replies

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", defaultAddr(), "listen address")
	reply := flag.String("reply", "", "fixed assistant reply (default: echo)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	srv := newServer(*reply, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	srv.RegisterRoutes(r)

	logger.Info("fake backend listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultAddr() string {
	if v := os.Getenv("FAKE_BACKEND_ADDR"); v != "" {
		return v
	}
	return ":8090"
}
