package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/nfrais/notes-de-frais/internal/category"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo user and a month of receipts for manual export testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		demoEmail := "demo@notesdefrais.fr"

		if clearData {
			if err := db.Exec("DELETE FROM receipts WHERE user_id IN (SELECT id FROM users WHERE email = ?)", demoEmail).Error; err != nil {
				log.Fatalf("failed to clear receipts: %v", err)
			}
			fmt.Println("Cleared demo receipts")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		var demoUserID string
		row := db.Raw("SELECT id FROM users WHERE email = ?", demoEmail).Row()
		if err := row.Scan(&demoUserID); err != nil {
			demoUserID = uuid.New().String()
			if err := db.Exec(
				"INSERT INTO users (id, email, full_name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				demoUserID, demoEmail, "Jean Dupont", string(hash)).Error; err != nil {
				log.Fatalf("failed to insert demo user: %v", err)
			}
			fmt.Println("Seeded demo user:", demoEmail)
		} else {
			fmt.Println("demo user already exists:", demoEmail)
		}

		monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)

		type seedReceipt struct {
			Day         int
			Category    category.Key
			TTCCents    int64
			TVACents    *int64
			CompanyName *string
			Designation *string
			DiversCode  *string
			SalonType   *string
		}

		tva := func(c int64) *int64 { return &c }
		str := func(s string) *string { return &s }

		receipts := []seedReceipt{
			{Day: 2, Category: category.Gasoil, TTCCents: 8000, TVACents: tva(1600)},
			{Day: 2, Category: category.RestaurantsAutoroute, TTCCents: 1850, TVACents: tva(168)},
			{Day: 5, Category: category.Gasoil, TTCCents: 5000, TVACents: tva(1000)},
			{Day: 5, Category: category.Gasoil, TTCCents: 3000, TVACents: tva(600)},
			{Day: 8, Category: category.MissionReceptions, TTCCents: 12500, TVACents: tva(1136), CompanyName: str("Acme SARL")},
			{Day: 11, Category: category.HotelsTransport, TTCCents: 9900},
			{Day: 14, Category: category.EntretienVehicules, TTCCents: 14500},
			{Day: 17, Category: category.FournituresBureaux, TTCCents: 2399, TVACents: tva(400)},
			{Day: 20, Category: category.Divers, TTCCents: 4200, TVACents: tva(700), Designation: str("Outillage atelier"), DiversCode: str("6063000")},
			{Day: 25, Category: category.Salons, TTCCents: 35000, TVACents: tva(5833), SalonType: str("sirha")},
		}

		var inserted int
		for _, r := range receipts {
			date := monthStart.AddDate(0, 0, r.Day-1).Format("2006-01-02")

			var exists int
			row := db.Raw(
				"SELECT 1 FROM receipts WHERE user_id = ? AND receipt_date = ? AND category = ? AND amount_ttc_cents = ?",
				demoUserID, date, string(r.Category), r.TTCCents).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec(
				`INSERT INTO receipts (id, user_id, receipt_date, category, amount_ttc_cents, amount_tva_cents,
				  company_name, designation, divers_account_code, salon_sub_type, scan_status, is_verified, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'completed', true, now(), now())`,
				uuid.New().String(), demoUserID, date, string(r.Category), r.TTCCents, r.TVACents,
				r.CompanyName, r.Designation, r.DiversCode, r.SalonType).Error; err != nil {
				log.Fatalf("failed to insert receipt: %v", err)
			}
			inserted++
		}

		fmt.Printf("Seeded %d receipts for %s\n", inserted, monthStart.Format("2006-01"))
	},
}
