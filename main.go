package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtuamnuq/speak2see-go/internal/api"
	"github.com/tomtuamnuq/speak2see-go/internal/auth"
	"github.com/tomtuamnuq/speak2see-go/internal/core"
	"github.com/tomtuamnuq/speak2see-go/internal/pipeline"
	"github.com/tomtuamnuq/speak2see-go/internal/store"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	if app.Config.Processing.TokenSecret == "" {
		// Without a configured secret, sessions do not survive restarts.
		secret, err := auth.GenerateRandomSecret(32)
		if err != nil {
			log.Fatalf("Could not generate a token secret: %v", err)
		}
		app.Config.Processing.TokenSecret = secret
		log.Println("No token secret configured, generated an ephemeral one.")
	}

	// --- First User Provisioning ---
	st := store.New(app.DB)
	userCount, err := st.CountUsers()
	if err != nil {
		log.Fatalf("Could not check user count: %v", err)
	}
	if userCount == 0 {
		log.Println("No users found. Creating default account.")
		password, err := auth.GenerateRandomSecret(12)
		if err != nil {
			log.Fatalf("Could not generate a password: %v", err)
		}
		passwordHash, _ := auth.HashPassword(password)
		_, err = st.CreateUser("speaker", passwordHash, "speaker@localhost")
		if err != nil {
			log.Fatalf("Could not create default user: %v", err)
		}
		log.Println("==================================================")
		log.Println("Default user created.")
		log.Printf("Username: speaker")
		log.Printf("Password: %s", password)
		log.Println("Please change this password immediately.")
		log.Println("==================================================")
	}

	// Start the processing pipeline in the background
	scheduler := pipeline.Start(app)
	defer scheduler.Stop()

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
