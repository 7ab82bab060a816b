package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/config"
	"github.com/megbaru-hub/teffexpo/internal/db"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type seedMerchant struct {
	Name    string
	Email   string
	Phone   string
	Variety models.Variety
	Price   string
	Stock   string
}

var merchants = []seedMerchant{
	{Name: "Addis Teff Traders", Email: "addis@teff.example", Phone: "+251911100001", Variety: models.VarietyWhite, Price: "120", Stock: "500"},
	{Name: "Gojjam Grain House", Email: "gojjam@teff.example", Phone: "+251911100002", Variety: models.VarietyRed, Price: "100", Stock: "350"},
	{Name: "Shewa Mixed Mill", Email: "shewa@teff.example", Phone: "+251911100003", Variety: models.VarietyMixed, Price: "110", Stock: "200"},
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// productID is stable per merchant so reruns update instead of duplicating.
func productID(merchantID string, variety models.Variety) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(merchantID+"/"+string(variety))).String()
}

func seed(ctx context.Context, store *db.Store) error {
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD env var is required")
	}
	adminHash, err := hashPassword(adminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		ID:           uuid.NewString(),
		Name:         getEnv("SEED_ADMIN_NAME", "Marketplace Admin"),
		Email:        getEnv("SEED_ADMIN_EMAIL", "admin@teff.example"),
		Role:         models.RoleAdmin,
		Active:       true,
		PasswordHash: adminHash,
	}
	if err := store.UpsertUser(ctx, admin); err != nil {
		return err
	}
	log.Printf("[SEED] admin %s (%s)", admin.Email, admin.ID)

	merchantHash, err := hashPassword(getEnv("SEED_MERCHANT_PASSWORD", adminPassword))
	if err != nil {
		return err
	}
	for _, m := range merchants {
		phone := m.Phone
		user := &models.User{
			ID:           uuid.NewString(),
			Name:         m.Name,
			Email:        m.Email,
			Phone:        &phone,
			Role:         models.RoleMerchant,
			Active:       true,
			PasswordHash: merchantHash,
		}
		if err := store.UpsertUser(ctx, user); err != nil {
			return err
		}

		now := time.Now().UTC()
		product := &models.Product{
			ID:             productID(user.ID, m.Variety),
			MerchantID:     user.ID,
			Variety:        m.Variety,
			PricePerKilo:   decimal.RequireFromString(m.Price),
			StockAvailable: decimal.RequireFromString(m.Stock),
			Description:    fmt.Sprintf("%s teff from %s", m.Variety, m.Name),
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		existing, err := store.GetProduct(ctx, product.ID)
		switch {
		case err == nil:
			product.CreatedAt = existing.CreatedAt
			err = store.UpdateProduct(ctx, product)
		case apperr.KindOf(err) == apperr.KindNotFound:
			err = store.InsertProduct(ctx, product)
		}
		if err != nil {
			return fmt.Errorf("seed product for %s: %w", m.Email, err)
		}
		log.Printf("[SEED] merchant %s (%s) with %s kg of %s teff", m.Email, user.ID, m.Stock, m.Variety)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn, err := cfg.ResolveDatabaseURL(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to resolve database URL: %v", err)
	}
	database, err := db.NewDatabase(ctx, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := seed(ctx, db.NewStore(database)); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("[SEED] done")
}
