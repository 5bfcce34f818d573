package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mgoubet/urlshortener/cmd"
	"github.com/mgoubet/urlshortener/internal/config"
	"github.com/mgoubet/urlshortener/internal/repository"
	"github.com/mgoubet/urlshortener/internal/services"
)

var (
	longURLFlag       string
	customCodeFlag    string
	expiresInDaysFlag int
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL longue fournie et affiche le code court généré.
Un alias personnalisé et une durée de validité peuvent être fournis.

Exemples:
  urlshortener create --url="https://www.google.com/search?q=go+lang"
  urlshortener create --url="https://example.com" --code=promo --expires-in-days=7`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		if longURLFlag == "" {
			fmt.Println("Error: --url flag is required")
			os.Exit(1)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
		}
		defer sqlDB.Close()

		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo, cfg.Shortener.CodeLength, cfg.Shortener.MaxAttempts)

		input := services.ShortenInput{
			OriginalURL: longURLFlag,
			CustomCode:  customCodeFlag,
		}
		// The flag default of -1 means "no expiration".
		if expiresInDaysFlag >= 0 {
			days := expiresInDaysFlag
			input.ExpiresInDays = &days
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout())
		defer cancel()

		result, err := linkService.ShortenLink(ctx, input)
		if err != nil {
			log.Fatalf("Failed to create short link: %v", err)
		}

		fullShortURL := fmt.Sprintf("%s/%s", cfg.Server.BaseURL, result.Link.ShortCode)
		if result.Reused {
			fmt.Println("Cette URL était déjà raccourcie, lien existant retourné:")
		} else {
			fmt.Println("URL courte créée avec succès:")
		}
		fmt.Printf("Code: %s\n", result.Link.ShortCode)
		fmt.Printf("URL complète: %s\n", fullShortURL)
		if result.Link.ExpiresAt != nil {
			fmt.Printf("Expire le: %s\n", result.Link.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&customCodeFlag, "code", "", "Custom alias instead of a generated code")
	CreateCmd.Flags().IntVar(&expiresInDaysFlag, "expires-in-days", -1, "Days until the link expires (omit for no expiration)")

	CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
