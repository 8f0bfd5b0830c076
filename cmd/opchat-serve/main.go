// Command opchat-serve hosts the compiled web console build for
// browsers, with single-page-app routing fallback.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/opchat/opchat/internal/static"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "dist", "build directory to serve")
	port := flag.String("port", defaultPort(), "port to listen on")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if _, err := os.Stat(*dir); err != nil {
		logger.Fatal("build directory not found", zap.String("dir", *dir), zap.Error(err))
	}

	handler := static.NewHandler(os.DirFS(*dir), logger)
	addr := ":" + *port
	logger.Info("serving console build", zap.String("dir", *dir), zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func defaultPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8080"
}
