package service

import (
	"errors"
	"testing"

	"github.com/dosewatch/internal/db"
	"github.com/dosewatch/internal/dose"
	"gorm.io/gorm"
)

func createTestPatient(t *testing.T, gdb *gorm.DB) *db.User {
	t.Helper()
	svc := NewUserService(gdb)
	patient, err := svc.Create("奶奶", db.RolePatient)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return patient
}

func TestMedicineServiceCreateNormalizesTimes(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-create")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	qty := 30
	medicine, err := svc.Create(MedicineInput{
		Name:          "  降压药  ",
		Times:         []string{"8:00", "20:5"},
		PatientID:     patient.ID,
		TotalQuantity: &qty,
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	if medicine.Name != "降压药" {
		t.Fatalf("expected trimmed name, got %q", medicine.Name)
	}
	if len(medicine.Times) != 2 {
		t.Fatalf("expected 2 dose times, got %d", len(medicine.Times))
	}
	if medicine.Times[0].Time != "08:00" || medicine.Times[1].Time != "20:05" {
		t.Fatalf("expected canonical times, got %q and %q", medicine.Times[0].Time, medicine.Times[1].Time)
	}
	for _, dt := range medicine.Times {
		if dt.Status != string(dose.StatusPending) {
			t.Fatalf("expected pending status, got %q", dt.Status)
		}
	}
}

func TestMedicineServiceCreateValidates(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-validate")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	cases := []struct {
		name  string
		input MedicineInput
		want  error
	}{
		{"empty name", MedicineInput{Name: " ", Times: []string{"08:00"}, PatientID: patient.ID}, ErrMedicineNameRequired},
		{"no times", MedicineInput{Name: "药", PatientID: patient.ID}, ErrDoseTimeRequired},
		{"bad time", MedicineInput{Name: "药", Times: []string{"25:00"}, PatientID: patient.ID}, ErrInvalidDoseTime},
		{"duplicate time", MedicineInput{Name: "药", Times: []string{"08:00", "8:00"}, PatientID: patient.ID}, ErrDuplicateDoseTime},
		{"unknown patient", MedicineInput{Name: "药", Times: []string{"08:00"}, PatientID: "nobody"}, ErrPatientNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.Create(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestMedicineServiceListOrdersTimes(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-list")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	if _, err := svc.Create(MedicineInput{
		Name:      "降压药",
		Times:     []string{"20:00", "08:00", "12:30"},
		PatientID: patient.ID,
	}); err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	medicines, err := svc.List(patient.ID)
	if err != nil {
		t.Fatalf("list medicines: %v", err)
	}
	if len(medicines) != 1 {
		t.Fatalf("expected 1 medicine, got %d", len(medicines))
	}
	got := medicines[0].Times
	if got[0].Time != "08:00" || got[1].Time != "12:30" || got[2].Time != "20:00" {
		t.Fatalf("expected sorted times, got %q %q %q", got[0].Time, got[1].Time, got[2].Time)
	}
}

func TestMedicineServiceUpdateReplacesTimesAndResetsStatus(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-update")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	medicine, err := svc.Create(MedicineInput{
		Name:      "降压药",
		Times:     []string{"08:00"},
		PatientID: patient.ID,
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	if _, err := svc.MarkTaken(medicine.ID, "08:00"); err != nil {
		t.Fatalf("mark taken: %v", err)
	}

	name := "新降压药"
	updated, err := svc.Update(medicine.ID, MedicineUpdate{
		Name:  &name,
		Times: []string{"09:00", "21:00"},
	})
	if err != nil {
		t.Fatalf("update medicine: %v", err)
	}
	if updated.Name != "新降压药" {
		t.Fatalf("expected renamed medicine, got %q", updated.Name)
	}
	if len(updated.Times) != 2 {
		t.Fatalf("expected 2 dose times after replace, got %d", len(updated.Times))
	}
	for _, dt := range updated.Times {
		if dt.Status != string(dose.StatusPending) {
			t.Fatalf("expected statuses reset to pending, got %q at %s", dt.Status, dt.Time)
		}
		if dt.TakenAt != nil {
			t.Fatalf("expected taken_at cleared on replaced schedule")
		}
	}
}

func TestMedicineServiceUpdateClampsNegativeQuantity(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-qty")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	medicine, err := svc.Create(MedicineInput{
		Name:      "维生素",
		Times:     []string{"08:00"},
		PatientID: patient.ID,
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	qty := -3
	updated, err := svc.Update(medicine.ID, MedicineUpdate{TotalQuantity: &qty})
	if err != nil {
		t.Fatalf("update medicine: %v", err)
	}
	if updated.TotalQuantity == nil || *updated.TotalQuantity != 0 {
		t.Fatalf("expected quantity clamped to 0, got %v", updated.TotalQuantity)
	}
}

func TestMedicineServiceDeleteCascades(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-delete")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	medicine, err := svc.Create(MedicineInput{
		Name:      "降压药",
		Times:     []string{"08:00", "20:00"},
		PatientID: patient.ID,
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	if err := svc.Delete(medicine.ID); err != nil {
		t.Fatalf("delete medicine: %v", err)
	}
	if _, err := svc.Get(medicine.ID); !errors.Is(err, ErrMedicineNotFound) {
		t.Fatalf("expected ErrMedicineNotFound after delete, got %v", err)
	}

	var count int64
	if err := gdb.Model(&db.DoseTime{}).Where("medicine_id = ?", medicine.ID).Count(&count).Error; err != nil {
		t.Fatalf("count dose times: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascaded dose times removed, got %d", count)
	}
}

func TestMedicineServiceMarkTaken(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-taken")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	medicine, err := svc.Create(MedicineInput{
		Name:      "降压药",
		Times:     []string{"08:00", "20:00"},
		PatientID: patient.ID,
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	updated, err := svc.MarkTaken(medicine.ID, "8:00")
	if err != nil {
		t.Fatalf("mark taken: %v", err)
	}

	var morning *db.DoseTime
	for i := range updated.Times {
		if updated.Times[i].Time == "08:00" {
			morning = &updated.Times[i]
		}
	}
	if morning == nil {
		t.Fatal("morning dose missing")
	}
	if morning.Status != string(dose.StatusTaken) || morning.TakenAt == nil {
		t.Fatalf("expected taken with timestamp, got %q taken_at=%v", morning.Status, morning.TakenAt)
	}
	for i := range updated.Times {
		if updated.Times[i].Time == "20:00" && updated.Times[i].Status != string(dose.StatusPending) {
			t.Fatalf("evening dose should stay pending, got %q", updated.Times[i].Status)
		}
	}
}

func TestMedicineServiceMarkTakenWithoutTimeNeedsSingleEntry(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-taken-legacy")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	single, err := svc.Create(MedicineInput{
		Name:      "维生素",
		Times:     []string{"09:00"},
		PatientID: patient.ID,
	})
	if err != nil {
		t.Fatalf("create single-dose medicine: %v", err)
	}
	updated, err := svc.MarkTaken(single.ID, "")
	if err != nil {
		t.Fatalf("mark taken without time: %v", err)
	}
	if updated.Times[0].Status != string(dose.StatusTaken) {
		t.Fatalf("expected sole dose taken, got %q", updated.Times[0].Status)
	}

	multi, err := svc.Create(MedicineInput{
		Name:      "降压药",
		Times:     []string{"08:00", "20:00"},
		PatientID: patient.ID,
	})
	if err != nil {
		t.Fatalf("create multi-dose medicine: %v", err)
	}
	if _, err := svc.MarkTaken(multi.ID, ""); !errors.Is(err, ErrDoseTimeNotFound) {
		t.Fatalf("expected ErrDoseTimeNotFound for ambiguous mark, got %v", err)
	}
}

func TestMedicineServiceMarkMissedReturnsEntry(t *testing.T) {
	gdb := setupServiceTestDB(t, "medicine-missed")
	svc := NewMedicineService(gdb)
	patient := createTestPatient(t, gdb)

	medicine, err := svc.Create(MedicineInput{
		Name:      "降压药",
		Times:     []string{"08:00"},
		PatientID: patient.ID,
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	_, entry, err := svc.MarkMissed(medicine.ID, "08:00")
	if err != nil {
		t.Fatalf("mark missed: %v", err)
	}
	if entry.Status != string(dose.StatusMissed) || entry.MissedAt == nil {
		t.Fatalf("expected missed with timestamp, got %q missed_at=%v", entry.Status, entry.MissedAt)
	}

	if _, _, err := svc.MarkMissed(medicine.ID, "12:00"); !errors.Is(err, ErrDoseTimeNotFound) {
		t.Fatalf("expected ErrDoseTimeNotFound for unknown time, got %v", err)
	}
}
