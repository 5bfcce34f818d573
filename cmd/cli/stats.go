package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mgoubet/urlshortener/cmd"
	"github.com/mgoubet/urlshortener/internal/config"
	apperrors "github.com/mgoubet/urlshortener/internal/errors"
	"github.com/mgoubet/urlshortener/internal/repository"
	"github.com/mgoubet/urlshortener/internal/services"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL",
	Long:  `Get click statistics for the provided short code.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	shortCode := args[0]

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Échec du chargement de la configuration : %v", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		log.Fatalf("Échec de la connexion à la base de données : %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
	}
	defer sqlDB.Close()

	linkRepo := repository.NewLinkRepository(db)
	linkService := services.NewLinkService(linkRepo, cfg.Shortener.CodeLength, cfg.Shortener.MaxAttempts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout())
	defer cancel()

	link, err := linkService.GetLinkStats(ctx, shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			fmt.Printf("Error: Short code '%s' not found\n", shortCode)
		} else {
			fmt.Printf("Error retrieving statistics: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Statistiques pour le code court: %s\n", shortCode)
	fmt.Printf("URL longue: %s\n", link.OriginalURL)
	fmt.Printf("Total de clics: %d\n", link.Clicks)
	fmt.Printf("Date de création: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	if link.ExpiresAt != nil {
		fmt.Printf("Date d'expiration: %s\n", link.ExpiresAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Date d'expiration: jamais")
	}
}
