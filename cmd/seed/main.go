package main

import (
	"fmt"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加货主
	users := []models.User{
		{Phone: "9000000001", Name: "Ravi Traders", Status: constants.UserStatusActive},
		{Phone: "9000000002", Name: "Shree Minerals", Status: constants.UserStatusActive},
		{Phone: "9000000003", Name: "Kaveri Agro Exports", Status: constants.UserStatusActive},
	}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("phone = ?", user.Phone).First(&existing).Error; err != nil {
			// 不存在则创建
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Phone, err)
			} else {
				stdLog.Printf("Created user: %s (%s)", user.Name, user.Phone)
			}
		} else {
			stdLog.Printf("User already exists: %s", user.Phone)
		}
	}

	// 添加承运人
	transporters := []models.Transporter{
		{Phone: "8000000001", Name: "Manjunath", CompanyName: "SLN Transports", Available: true, Status: constants.TransporterStatusActive},
		{Phone: "8000000002", Name: "Irfan", CompanyName: "Deccan Logistics", Available: true, Status: constants.TransporterStatusActive},
		{Phone: "8000000003", Name: "Basavaraj", CompanyName: "Krishna Carriers", Available: false, Status: constants.TransporterStatusActive},
		{Phone: "8000000004", Name: "Suresh", CompanyName: "Coastal Haulage", Available: true, Status: constants.TransporterStatusActive},
	}
	for _, transporter := range transporters {
		var existing models.Transporter
		if err := models.DB.Where("phone = ?", transporter.Phone).First(&existing).Error; err != nil {
			if err := models.DB.Create(&transporter).Error; err != nil {
				stdLog.Printf("Failed to create transporter %s: %v", transporter.Phone, err)
			} else {
				stdLog.Printf("Created transporter: %s (%s)", transporter.CompanyName, transporter.Phone)
			}
		} else {
			stdLog.Printf("Transporter already exists: %s", transporter.Phone)
		}
	}

	// 按手机号取回承运人ID
	transporterIDs := map[string]uint{}
	var transporterList []models.Transporter
	if err := models.DB.Where("phone IN ?", []string{"8000000001", "8000000002", "8000000003", "8000000004"}).
		Find(&transporterList).Error; err != nil {
		stdLog.Printf("Failed to load transporters: %v", err)
	}
	for _, transporter := range transporterList {
		transporterIDs[transporter.Phone] = transporter.ID
	}
	slnID := transporterIDs["8000000001"]
	deccanID := transporterIDs["8000000002"]
	krishnaID := transporterIDs["8000000003"]
	coastalID := transporterIDs["8000000004"]

	// 添加车辆：覆盖目录内全部车型，便于演示按车型扇出
	vehicles := []models.Vehicle{
		{TransporterID: slnID, VehicleType: constants.VehicleTypeTipper, VehicleSubtype: "14t", RegistrationNo: "KA25AB1001", Status: constants.VehicleStatusIdle},
		{TransporterID: slnID, VehicleType: constants.VehicleTypeTipper, VehicleSubtype: "18t", RegistrationNo: "KA25AB1002", Status: constants.VehicleStatusIdle},
		{TransporterID: slnID, VehicleType: constants.VehicleTypeOpenBody, VehicleSubtype: "10w", RegistrationNo: "KA25AB1003", Status: constants.VehicleStatusIdle},
		{TransporterID: deccanID, VehicleType: constants.VehicleTypeContainer, VehicleSubtype: "20ft", RegistrationNo: "KA29CD2001", Status: constants.VehicleStatusIdle},
		{TransporterID: deccanID, VehicleType: constants.VehicleTypeContainer, VehicleSubtype: "32ft", RegistrationNo: "KA29CD2002", Status: constants.VehicleStatusIdle},
		{TransporterID: krishnaID, VehicleType: constants.VehicleTypeTrailer, VehicleSubtype: "flatbed", RegistrationNo: "KA22EF3001", Status: constants.VehicleStatusIdle},
		{TransporterID: krishnaID, VehicleType: constants.VehicleTypeTipper, VehicleSubtype: "24t", RegistrationNo: "KA22EF3002", Status: constants.VehicleStatusIdle},
		{TransporterID: coastalID, VehicleType: constants.VehicleTypeTanker, VehicleSubtype: "", RegistrationNo: "KA19GH4001", Status: constants.VehicleStatusIdle},
		{TransporterID: coastalID, VehicleType: constants.VehicleTypeOpenBody, VehicleSubtype: "6w", RegistrationNo: "KA19GH4002", Status: constants.VehicleStatusIdle},
	}
	for _, vehicle := range vehicles {
		if vehicle.TransporterID == 0 {
			stdLog.Printf("Skip vehicle %s: transporter missing", vehicle.RegistrationNo)
			continue
		}
		var existing models.Vehicle
		if err := models.DB.Where("registration_no = ?", vehicle.RegistrationNo).First(&existing).Error; err != nil {
			if err := models.DB.Create(&vehicle).Error; err != nil {
				stdLog.Printf("Failed to create vehicle %s: %v", vehicle.RegistrationNo, err)
			} else {
				stdLog.Printf("Created vehicle: %s (%s %s)", vehicle.RegistrationNo, vehicle.VehicleType, vehicle.VehicleSubtype)
			}
		} else {
			existing.VehicleType = vehicle.VehicleType
			existing.VehicleSubtype = vehicle.VehicleSubtype
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update vehicle %s: %v", vehicle.RegistrationNo, err)
			} else {
				stdLog.Printf("Updated vehicle: %s", vehicle.RegistrationNo)
			}
		}
	}

	// 添加司机
	drivers := []models.Driver{
		{TransporterID: slnID, Name: "Prakash", Phone: "7000000001", LicenseNo: "KA2520190001001", Status: constants.DriverStatusActive},
		{TransporterID: slnID, Name: "Nagaraj", Phone: "7000000002", LicenseNo: "KA2520200001002", Status: constants.DriverStatusActive},
		{TransporterID: deccanID, Name: "Salim", Phone: "7000000003", LicenseNo: "KA2920180002001", Status: constants.DriverStatusActive},
		{TransporterID: krishnaID, Name: "Veeresh", Phone: "7000000004", LicenseNo: "KA2220210003001", Status: constants.DriverStatusActive},
		{TransporterID: coastalID, Name: "Ganesh", Phone: "7000000005", LicenseNo: "KA1920170004001", Status: constants.DriverStatusActive},
	}
	for _, driver := range drivers {
		if driver.TransporterID == 0 {
			stdLog.Printf("Skip driver %s: transporter missing", driver.Phone)
			continue
		}
		var existing models.Driver
		if err := models.DB.Where("phone = ?", driver.Phone).First(&existing).Error; err != nil {
			if err := models.DB.Create(&driver).Error; err != nil {
				stdLog.Printf("Failed to create driver %s: %v", driver.Phone, err)
			} else {
				stdLog.Printf("Created driver: %s (%s)", driver.Name, driver.Phone)
			}
		} else {
			stdLog.Printf("Driver already exists: %s", driver.Phone)
		}
	}

	// 为演示账号签发 24h 令牌，便于直接调试 API
	authService := service.NewAuthService(cfg)
	if shipper, err := repository.NewUserRepository(models.DB).GetByPhone("9000000001"); err == nil && shipper != nil {
		if token, _, err := authService.GenerateJWT(shipper.ID, constants.RoleUser, 24*time.Hour); err == nil {
			fmt.Printf("\nShipper token (%s):\n%s\n", shipper.Phone, token)
		}
	}
	if carrier, err := repository.NewTransporterRepository(models.DB).GetByPhone("8000000001"); err == nil && carrier != nil {
		if token, _, err := authService.GenerateJWT(carrier.ID, constants.RoleTransporter, 24*time.Hour); err == nil {
			fmt.Printf("\nTransporter token (%s):\n%s\n", carrier.Phone, token)
		}
	}

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Shippers")
	fmt.Println("- 4 Transporters (3 available)")
	fmt.Println("- 9 Vehicles across all catalog types")
	fmt.Println("- 5 Drivers")
}
