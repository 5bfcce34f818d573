package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mgoubet/urlshortener/cmd"
	"github.com/mgoubet/urlshortener/internal/api"
	"github.com/mgoubet/urlshortener/internal/config"
	"github.com/mgoubet/urlshortener/internal/models"
	"github.com/mgoubet/urlshortener/internal/monitor"
	"github.com/mgoubet/urlshortener/internal/ratelimit"
	"github.com/mgoubet/urlshortener/internal/repository"
	"github.com/mgoubet/urlshortener/internal/services"
	"github.com/mgoubet/urlshortener/internal/workers"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et les processus de fond.",
	Long: `Cette commande initialise la base de données, configure les APIs,
démarre les workers asynchrones pour les clics et le moniteur d'URLs,
puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Échec du chargement de la configuration : %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}

		// Migration automatique du modèle
		if err := db.AutoMigrate(&models.Link{}); err != nil {
			log.Fatalf("Échec de la migration de la base de données : %v", err)
		}

		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo, cfg.Shortener.CodeLength, cfg.Shortener.MaxAttempts)
		log.Println("Repository et service métier initialisés.")

		// Background goroutines stop when this context is cancelled.
		bgCtx, bgCancel := context.WithCancel(context.Background())
		defer bgCancel()

		// Channel d'événements de clic et workers asynchrones.
		clickEventsChan := make(chan models.ClickEvent, cfg.Analytics.BufferSize)
		api.ClickEventsChannel = clickEventsChan
		workersDone := workers.StartClickWorkers(cfg.Analytics.WorkerCount, clickEventsChan, linkRepo)
		log.Printf("Channel d'événements de clic initialisé avec un buffer de %d. %d worker(s) de clics démarré(s).",
			cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)

		// Rate limiter glissant sur le endpoint de création, avec janitor.
		limiter := ratelimit.NewLimiter(cfg.RateLimit.Limit, cfg.RateWindow(), cfg.RateLimit.MaxClients,
			ratelimit.WithCleanupEvery(cfg.RateCleanupInterval()))
		limiter.StartJanitor(bgCtx)
		log.Printf("Rate limiter initialisé : %d requêtes / %v par client.", cfg.RateLimit.Limit, cfg.RateWindow())

		// Moniteur de disponibilité des URLs longues.
		monitorInterval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
		urlMonitor := monitor.NewUrlMonitor(linkRepo, monitorInterval)
		go urlMonitor.Start(bgCtx)
		log.Printf("Moniteur d'URLs démarré avec un intervalle de %v.", monitorInterval)

		// Configurer le routeur Gin et les handlers API.
		router := gin.Default()
		api.SetupRoutes(router, linkService, limiter, cfg)
		log.Println("Routes API configurées.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur dans une goroutine pour ne pas bloquer.
		go func() {
			log.Printf("Démarrage du serveur sur %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Échec du démarrage du serveur : %v", err)
			}
		}()

		// Arrêt propre du serveur (graceful shutdown).
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Signal d'arrêt reçu. Arrêt du serveur...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Erreur lors de l'arrêt du serveur : %v", err)
		}

		// Stop background loops, then let the workers drain the click buffer.
		bgCancel()
		close(clickEventsChan)
		workersDone.Wait()

		log.Println("Serveur arrêté proprement.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
