package main

import (
	"fmt"
	"log"

	"github.com/dosewatch/internal/config"
	"github.com/dosewatch/internal/db"
	"github.com/dosewatch/internal/service"
)

// 演示数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	users := service.NewUserService(db.DB)
	medicines := service.NewMedicineService(db.DB)

	patient, err := users.Create("奶奶", db.RolePatient)
	if err != nil {
		log.Fatal("创建患者失败:", err)
	}
	caregiver, err := users.Create("小王", db.RoleCaregiver)
	if err != nil {
		log.Fatal("创建照护者失败:", err)
	}
	if _, _, err := users.Link(caregiver.ID, patient.LinkCode); err != nil {
		log.Fatal("绑定用户失败:", err)
	}
	fmt.Println("✅ 演示用户创建完成")

	qty30 := 30
	qty8 := 8
	demo := []service.MedicineInput{
		{
			Name:          "降压药",
			Times:         []string{"08:00", "20:00"},
			PatientID:     patient.ID,
			CreatedBy:     caregiver.ID,
			TotalQuantity: &qty30,
			Instructions:  "**饭后服用**，不要空腹。\n\n如出现头晕请联系医生。",
		},
		{
			Name:          "维生素D",
			Times:         []string{"09:00"},
			PatientID:     patient.ID,
			CreatedBy:     caregiver.ID,
			TotalQuantity: &qty8,
			Instructions:  "随早餐服用。",
		},
		{
			Name:      "眼药水",
			Times:     []string{"07:30", "12:30", "21:30"},
			PatientID: patient.ID,
			CreatedBy: caregiver.ID,
		},
	}
	for _, input := range demo {
		if _, err := medicines.Create(input); err != nil {
			log.Fatal("创建药品失败:", err)
		}
	}
	fmt.Println("✅ 演示药品创建完成")

	fmt.Println("演示数据生成完成！")
	fmt.Printf("患者: %s (邀请码: %s)\n", patient.Name, patient.LinkCode)
	fmt.Printf("照护者: %s\n", caregiver.Name)
	fmt.Println("药品: 3 种，含低库存示例（维生素D 剩 8 粒）")
}
