package main

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/sellerstat/sellerstat_api/internal/config"
	"github.com/sellerstat/sellerstat_api/internal/database"
	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/repository"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// Demo catalog: three roots, each with two subcategories.
var seedTree = map[string][]string{
	"Shoes":       {"Men", "Women"},
	"Electronics": {"Phones", "Audio"},
	"Home":        {"Kitchen", "Decor"},
}

var seedMerchants = []string{"TradeHouse", "MegaShop", "GoodsDirect", "PrimeSeller"}

// main seeds demo categories, merchant listings and a staff account.
// Safe to run repeatedly: every write is get-or-create.
func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runMigrations(db.DB); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if err := seedCategoriesAndListings(db); err != nil {
		log.Fatal().Err(err).Msg("seeding catalog failed")
	}
	if err := seedStaffUser(db); err != nil {
		log.Fatal().Err(err).Msg("seeding staff user failed")
	}
	log.Info().Msg("seeding finished")
}

func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func seedCategoriesAndListings(db *sqlx.DB) error {
	rng := rand.New(rand.NewSource(42))

	article := 0
	for rootName, children := range seedTree {
		rootID, created, err := repository.GetOrCreateCategory(db, nil, slug.Make(rootName), rootName)
		if err != nil {
			return err
		}
		if created {
			log.Info().Str("category", rootName).Msg("category created")
		}

		for _, childName := range children {
			childID, _, err := repository.GetOrCreateCategory(db, &rootID, slug.Make(childName), childName)
			if err != nil {
				return err
			}

			// A few articles per leaf, each listed by 2-4 merchants.
			for i := 0; i < 3; i++ {
				article++
				articleID := fmt.Sprintf("ART-%04d", article)
				name := fmt.Sprintf("%s %s item %d", rootName, childName, i+1)
				merchantCount := 2 + rng.Intn(3)
				for m := 0; m < merchantCount; m++ {
					merchant := seedMerchants[(article+m)%len(seedMerchants)]
					exists, err := repository.ListingExists(db, articleID, merchant)
					if err != nil {
						return err
					}
					if exists {
						continue
					}
					count := int64(1 + rng.Intn(20))
					if err := repository.InsertListing(db, &models.Product{
						CategoryID:    childID,
						ArticleID:     articleID,
						MerchantName:  merchant,
						Name:          name,
						PhotoURL:      fmt.Sprintf("https://picsum.photos/seed/%d/400/400", article),
						ProductCount:  count,
						ProductOrders: int64(rng.Intn(15)),
						GMV:           count * int64(500+rng.Intn(9500)),
					}); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func seedStaffUser(db *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	staff := &models.User{
		Username:      "+70000000001",
		PhoneNumber:   "+70000000001",
		PasswordHash:  string(hash),
		FirstName:     "Seed",
		LastName:      "Operator",
		PaymentStatus: models.PaymentStatusPaid,
		TokenVersion:  1,
		IsStaff:       true,
		IsActive:      true,
	}
	if err := users.Create(staff); err != nil {
		if errors.Is(err, utils.ErrPhoneTaken) {
			log.Info().Msg("staff user already exists")
			return nil
		}
		return err
	}
	log.Info().Str("username", staff.Username).Msg("staff user created")
	return nil
}
