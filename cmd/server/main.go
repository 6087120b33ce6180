package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tyrowin/gorelay/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	fmt.Println("Starting GoRelay server...")

	config := server.NewConfigFromEnv()
	server.SetConfig(config)

	registry := server.NewRegistry()

	tcpServer := server.NewTCPServer(config.ListenAddr, registry)
	if err := tcpServer.Listen(); err != nil {
		log.Fatalf("Failed to bind %s: %v", config.ListenAddr, err)
	}
	go func() {
		if err := tcpServer.Serve(); err != nil {
			log.Printf("TCP server error: %v", err)
		}
	}()

	mux := server.SetupRoutes(registry)
	httpServer := server.CreateServer(config.HTTPAddr, mux)
	go func() {
		if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	log.Println("Shutting down server...")

	if err := tcpServer.Shutdown(); err != nil {
		log.Printf("TCP listener shutdown error: %v", err)
	}
	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := registry.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Registry shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
