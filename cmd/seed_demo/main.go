package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kargoline/tmsgo/internal/config"
	"github.com/kargoline/tmsgo/internal/database"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/services/cascade"
	"github.com/kargoline/tmsgo/internal/store"
)

func main() {
	fmt.Println("🌱 Kargoline Demo Data Seeder")
	fmt.Println(strings.Repeat("=", 60))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.Customer{},
		&models.Driver{},
		&models.Vehicle{},
		&models.JobOrder{},
		&models.Manifest{},
		&models.ManifestJobOrder{},
		&models.DeliveryOrder{},
		&models.Invoice{},
		&models.Assignment{},
		&models.StatusHistory{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	// Check if data already exists
	var customerCount int64
	db.Model(&models.Customer{}).Count(&customerCount)
	if customerCount > 0 {
		fmt.Printf("⚠️  Database already has %d customers. Clear it first? (y/N): ", customerCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("DELETE FROM status_histories")
		db.Exec("DELETE FROM assignments")
		db.Exec("DELETE FROM invoices")
		db.Exec("DELETE FROM delivery_orders")
		db.Exec("DELETE FROM manifest_job_orders")
		db.Exec("DELETE FROM manifests")
		db.Exec("DELETE FROM job_orders")
		db.Exec("DELETE FROM vehicles")
		db.Exec("DELETE FROM drivers")
		db.Exec("DELETE FROM customers")
		fmt.Println("✅ Data cleared")
	}

	// The cascade registers itself as the job order hook, so seeding through
	// the store keeps every manifest aggregate and delivery order in sync.
	st := store.New(db)
	cascade.New(st)
	ctx := context.Background()

	fmt.Println()
	fmt.Println("📦 Creating demo data...")
	fmt.Println()

	// 1. Customers
	fmt.Println("🏢 Creating customers...")
	customers := []models.Customer{
		{Code: "CUST-0001", Name: "PT Sinar Abadi", Email: "ops@sinarabadi.example", Phone: "+62-21-555-0101", City: "Jakarta", Address: "Jl. Gatot Subroto 12, Jakarta"},
		{Code: "CUST-0002", Name: "CV Maju Jaya", Email: "logistik@majujaya.example", Phone: "+62-22-555-0202", City: "Bandung", Address: "Jl. Asia Afrika 88, Bandung"},
		{Code: "CUST-0003", Name: "UD Berkah Sentosa", Email: "gudang@berkah.example", Phone: "+62-31-555-0303", City: "Surabaya", Address: "Jl. Tunjungan 45, Surabaya"},
	}
	for i := range customers {
		if err := st.CreateCustomer(ctx, &customers[i]); err != nil {
			log.Printf("⚠️  Failed to create customer %s: %v", customers[i].Name, err)
		} else {
			fmt.Printf("   ✓ Created customer: [%s] %s\n", customers[i].Code, customers[i].Name)
		}
	}
	fmt.Printf("✅ Created %d customers\n\n", len(customers))

	// 2. Drivers
	fmt.Println("🧑 Creating drivers...")
	drivers := []models.Driver{
		{Name: "Budi Santoso", LicenseNo: "B-771234", Phone: "+62-812-555-1001", Status: models.DriverStatusAvailable},
		{Name: "Agus Wijaya", LicenseNo: "B-772345", Phone: "+62-812-555-1002", Status: models.DriverStatusAvailable},
		{Name: "Siti Rahma", LicenseNo: "D-443456", Phone: "+62-812-555-1003", Status: models.DriverStatusAvailable},
	}
	for i := range drivers {
		if err := st.CreateDriver(ctx, &drivers[i]); err != nil {
			log.Printf("⚠️  Failed to create driver %s: %v", drivers[i].Name, err)
		} else {
			fmt.Printf("   ✓ Created driver: %s (%s)\n", drivers[i].Name, drivers[i].LicenseNo)
		}
	}
	fmt.Printf("✅ Created %d drivers\n\n", len(drivers))

	// 3. Vehicles
	fmt.Println("🚚 Creating vehicles...")
	vehicles := []models.Vehicle{
		{PlateNumber: "B 9001 TMS", VehicleType: "CDD", CapacityKg: 4000, Active: true},
		{PlateNumber: "B 9002 TMS", VehicleType: "fuso", CapacityKg: 8000, Active: true},
		{PlateNumber: "D 9003 TMS", VehicleType: "tronton", CapacityKg: 20000, Active: true},
	}
	for i := range vehicles {
		if err := st.CreateVehicle(ctx, &vehicles[i]); err != nil {
			log.Printf("⚠️  Failed to create vehicle %s: %v", vehicles[i].PlateNumber, err)
		} else {
			fmt.Printf("   ✓ Created vehicle: %s [%s]\n", vehicles[i].PlateNumber, vehicles[i].VehicleType)
		}
	}
	fmt.Printf("✅ Created %d vehicles\n\n", len(vehicles))

	// 4. Job orders
	fmt.Println("📋 Creating job orders...")
	shipDate := time.Now().Add(24 * time.Hour)
	jobOrders := []models.JobOrder{
		{
			CustomerID:       customers[0].ID,
			OrderType:        "regular",
			PickupAddress:    "Jl. Gatot Subroto 12, Jakarta",
			PickupCity:       "Jakarta",
			DeliveryAddress:  "Jl. Asia Afrika 88, Bandung",
			DeliveryCity:     "Bandung",
			GoodsDescription: "Electronics",
			GoodsWeight:      1200,
			GoodsVolume:      6.5,
			GoodsQuantity:    24,
			ShipDate:         &shipDate,
		},
		{
			CustomerID:       customers[1].ID,
			OrderType:        "express",
			PickupAddress:    "Jl. Braga 5, Bandung",
			PickupCity:       "Jakarta",
			DeliveryAddress:  "Jl. Tunjungan 45, Surabaya",
			DeliveryCity:     "Bandung",
			GoodsDescription: "Textiles",
			GoodsWeight:      800,
			GoodsVolume:      4.0,
			GoodsQuantity:    40,
			ShipDate:         &shipDate,
		},
		{
			CustomerID:       customers[2].ID,
			OrderType:        "regular",
			PickupAddress:    "Jl. Sudirman 99, Jakarta",
			PickupCity:       "Jakarta",
			DeliveryAddress:  "Jl. Pahlawan 7, Bandung",
			DeliveryCity:     "Bandung",
			GoodsDescription: "Furniture",
			GoodsWeight:      2500,
			GoodsVolume:      14.0,
			GoodsQuantity:    12,
			ShipDate:         &shipDate,
		},
	}
	for i := range jobOrders {
		if err := st.CreateJobOrder(ctx, &jobOrders[i]); err != nil {
			log.Printf("⚠️  Failed to create job order: %v", err)
		} else {
			fmt.Printf("   ✓ Created job order: %s (%s, %.0f kg)\n", jobOrders[i].DocNumber, jobOrders[i].GoodsDescription, jobOrders[i].GoodsWeight)
		}
	}
	fmt.Printf("✅ Created %d job orders\n\n", len(jobOrders))

	// 5. Manifest covering the Jakarta -> Bandung run
	fmt.Println("🗂️  Creating manifest...")
	departure := time.Now().Add(26 * time.Hour)
	arrival := time.Now().Add(32 * time.Hour)
	mf := models.Manifest{
		OriginCity:       "Jakarta",
		DestCity:         "Bandung",
		DriverID:         &drivers[0].ID,
		VehicleID:        &vehicles[1].ID,
		PlannedDeparture: &departure,
		PlannedArrival:   &arrival,
	}
	if err := st.CreateManifest(ctx, &mf); err != nil {
		log.Fatalf("❌ Failed to create manifest: %v", err)
	}
	fmt.Printf("   ✓ Created manifest: %s (%s → %s)\n", mf.DocNumber, mf.OriginCity, mf.DestCity)

	for i := range jobOrders {
		if err := st.LinkJobOrder(ctx, mf.DocNumber, jobOrders[i].DocNumber); err != nil {
			log.Printf("⚠️  Failed to link %s: %v", jobOrders[i].DocNumber, err)
		} else {
			fmt.Printf("   ✓ Linked %s to %s\n", jobOrders[i].DocNumber, mf.DocNumber)
		}
	}

	seeded, err := st.GetManifest(ctx, mf.DocNumber)
	if err != nil {
		log.Fatalf("❌ Failed to reload manifest: %v", err)
	}
	fmt.Printf("✅ Manifest totals: %.0f kg, %q\n\n", seeded.CargoWeight, seeded.CargoSummary)

	// 6. Delivery order and invoice off the manifest
	fmt.Println("📝 Creating delivery order and invoice...")
	doDate := time.Now()
	do := models.DeliveryOrder{
		Source:       models.ManifestRef(mf.DocNumber),
		GoodsSummary: seeded.CargoSummary,
		DODate:       &doDate,
	}
	if err := st.CreateDeliveryOrder(ctx, &do); err != nil {
		log.Printf("⚠️  Failed to create delivery order: %v", err)
	} else {
		fmt.Printf("   ✓ Created delivery order: %s\n", do.DocNumber)
	}

	due := time.Now().Add(14 * 24 * time.Hour)
	inv := models.Invoice{
		CustomerID: customers[0].ID,
		Source:     models.JobOrderRef(jobOrders[0].DocNumber),
		Subtotal:   2500000,
		TaxAmount:  275000,
		Total:      2775000,
		DueDate:    &due,
	}
	if err := st.CreateInvoice(ctx, &inv); err != nil {
		log.Printf("⚠️  Failed to create invoice: %v", err)
	} else {
		fmt.Printf("   ✓ Created invoice: %s (total %.0f)\n", inv.DocNumber, inv.Total)
	}
	fmt.Println()

	// Summary
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("🎉 Demo data created successfully!")
	fmt.Println()
	fmt.Println("📊 Summary:")
	fmt.Printf("   • %d customers\n", len(customers))
	fmt.Printf("   • %d drivers, %d vehicles\n", len(drivers), len(vehicles))
	fmt.Printf("   • %d job orders on manifest %s\n", len(jobOrders), mf.DocNumber)
	fmt.Println("   • 1 delivery order, 1 invoice")
	fmt.Println()
	fmt.Println("🌐 Start the server:")
	fmt.Println("   go run ./cmd/api/main.go")
	fmt.Println("   Then visit: http://localhost:3001/api/status")
	fmt.Println(strings.Repeat("=", 60))
}
