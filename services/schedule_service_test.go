package services

import (
	"errors"
	"testing"

	"topvalidation-http-service/models"
)

func TestCreateSchedule(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")

	schedule, err := svc.CreateSchedule(company.ID, testDate(3), "09:00", "10:00")
	if err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}
	if schedule.Status != models.SchedulePending {
		t.Fatalf("new schedule status = %s, want PENDING", schedule.Status)
	}
	if schedule.AnalystID != nil {
		t.Fatal("new schedule must not have an analyst bound")
	}
	if schedule.VideoCall != nil {
		t.Fatal("video call must not exist before confirmation")
	}
}

func TestCreateScheduleRejectsNonCompany(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	analyst := createAnalystUser(t, db, "analyst@test.local")

	if _, err := svc.CreateSchedule(analyst.ID, testDate(3), "09:00", "10:00"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("analyst creating a schedule should fail with ErrInvalidRequest, got %v", err)
	}
	if _, err := svc.CreateSchedule("missing-id", testDate(3), "09:00", "10:00"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("unknown company should fail with ErrInvalidRequest, got %v", err)
	}
}

func TestCreateScheduleRejectsInvertedTimes(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")

	if _, err := svc.CreateSchedule(company.ID, testDate(3), "11:00", "10:00"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("inverted time range should fail with ErrInvalidRequest, got %v", err)
	}
	if _, err := svc.CreateSchedule(company.ID, testDate(3), "10:00", "10:00"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("zero-length slot should fail with ErrInvalidRequest, got %v", err)
	}
}

func TestCreateScheduleOverlapConflict(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")
	date := testDate(3)

	if _, err := svc.CreateSchedule(company.ID, date, "09:00", "10:00"); err != nil {
		t.Fatalf("first schedule: %v", err)
	}

	// 部分重叠
	if _, err := svc.CreateSchedule(company.ID, date, "09:30", "10:30"); !errors.Is(err, ErrConflict) {
		t.Fatalf("overlapping slot should conflict, got %v", err)
	}
	// 相邻时段不算重叠
	if _, err := svc.CreateSchedule(company.ID, date, "10:00", "11:00"); err != nil {
		t.Fatalf("adjacent slot should be allowed, got %v", err)
	}
	// 不同日期不冲突
	if _, err := svc.CreateSchedule(company.ID, testDate(4), "09:00", "10:00"); err != nil {
		t.Fatalf("same slot on another day should be allowed, got %v", err)
	}
}

func TestUpdateScheduleStatusConfirmCreatesVideoCall(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")
	analyst := createAnalystUser(t, db, "analyst@test.local")

	schedule, err := svc.CreateSchedule(company.ID, testDate(3), "09:00", "10:00")
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	confirmed, err := svc.UpdateScheduleStatus(schedule.ID, analyst.ID, models.ScheduleConfirmed)
	if err != nil {
		t.Fatalf("UpdateScheduleStatus: %v", err)
	}
	if confirmed.Status != models.ScheduleConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", confirmed.Status)
	}
	if confirmed.AnalystID == nil || *confirmed.AnalystID != analyst.ID {
		t.Fatal("confirmed schedule must bind the accepting analyst")
	}
	if confirmed.VideoCall == nil {
		t.Fatal("confirmation must create the video call record")
	}
	call := confirmed.VideoCall
	if call.Status != models.VideoCallWaiting {
		t.Fatalf("new call status = %s, want WAITING", call.Status)
	}
	if call.RoomID != models.RoomIDForSchedule(schedule.ID) {
		t.Fatalf("room id = %s, want %s", call.RoomID, models.RoomIDForSchedule(schedule.ID))
	}
	if call.CompanyID != company.ID || call.AnalystID != analyst.ID {
		t.Fatal("call must carry both participant ids")
	}
	if call.ExpiredAt.IsZero() {
		t.Fatal("call must carry an expiry")
	}
}

func TestUpdateScheduleStatusRejectUnbindsAnalyst(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")
	analyst := createAnalystUser(t, db, "analyst@test.local")

	schedule, _ := svc.CreateSchedule(company.ID, testDate(3), "09:00", "10:00")
	rejected, err := svc.UpdateScheduleStatus(schedule.ID, analyst.ID, models.ScheduleRejected)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.ScheduleRejected {
		t.Fatalf("status = %s, want REJECTED", rejected.Status)
	}
	if rejected.AnalystID != nil {
		t.Fatal("rejected schedule must not keep an analyst bound")
	}
	if rejected.VideoCall != nil {
		t.Fatal("rejection must not create a video call")
	}
}

func TestUpdateScheduleStatusGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")
	analyst := createAnalystUser(t, db, "analyst@test.local")
	other := createAnalystUser(t, db, "other@test.local")

	schedule, _ := svc.CreateSchedule(company.ID, testDate(3), "09:00", "10:00")

	// 只允许 CONFIRMED / REJECTED
	if _, err := svc.UpdateScheduleStatus(schedule.ID, analyst.ID, models.ScheduleCompleted); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("COMPLETED via analyst endpoint should fail, got %v", err)
	}
	// 非分析师
	if _, err := svc.UpdateScheduleStatus(schedule.ID, company.ID, models.ScheduleConfirmed); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("company confirming should fail, got %v", err)
	}
	// 不存在的排期
	if _, err := svc.UpdateScheduleStatus("missing", analyst.ID, models.ScheduleConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown schedule should be not found, got %v", err)
	}

	if _, err := svc.UpdateScheduleStatus(schedule.ID, analyst.ID, models.ScheduleConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// 已被接受的排期不能再被接受
	if _, err := svc.UpdateScheduleStatus(schedule.ID, other.ID, models.ScheduleConfirmed); !errors.Is(err, ErrConflict) {
		t.Fatalf("double-claim should conflict, got %v", err)
	}
}

func TestUpdateScheduleStatusAnalystOverlap(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	companyA := createCompanyUser(t, db, "a@test.local")
	companyB := createCompanyUser(t, db, "b@test.local")
	analyst := createAnalystUser(t, db, "analyst@test.local")
	date := testDate(3)

	first, _ := svc.CreateSchedule(companyA.ID, date, "09:00", "10:00")
	second, _ := svc.CreateSchedule(companyB.ID, date, "09:30", "10:30")

	if _, err := svc.UpdateScheduleStatus(first.ID, analyst.ID, models.ScheduleConfirmed); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	// 同一分析师不能接受与已确认排期重叠的时段
	if _, err := svc.UpdateScheduleStatus(second.ID, analyst.ID, models.ScheduleConfirmed); !errors.Is(err, ErrConflict) {
		t.Fatalf("overlapping confirm should conflict, got %v", err)
	}
}

func TestGetAvailableSchedules(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")
	analyst := createAnalystUser(t, db, "analyst@test.local")

	s1, _ := svc.CreateSchedule(company.ID, testDate(3), "09:00", "10:00")
	s2, _ := svc.CreateSchedule(company.ID, testDate(4), "09:00", "10:00")
	if _, err := svc.UpdateScheduleStatus(s1.ID, analyst.ID, models.ScheduleConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	available, err := svc.GetAvailableSchedules()
	if err != nil {
		t.Fatalf("GetAvailableSchedules: %v", err)
	}
	if len(available) != 1 || available[0].ID != s2.ID {
		t.Fatalf("only the unclaimed pending schedule should be listed, got %v", available)
	}
}

func TestGetClosestSchedule(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")
	analyst := createAnalystUser(t, db, "analyst@test.local")

	far, _ := svc.CreateSchedule(company.ID, testDate(10), "09:00", "10:00")
	near, _ := svc.CreateSchedule(company.ID, testDate(2), "09:00", "10:00")
	if _, err := svc.UpdateScheduleStatus(far.ID, analyst.ID, models.ScheduleConfirmed); err != nil {
		t.Fatalf("confirm far: %v", err)
	}
	if _, err := svc.UpdateScheduleStatus(near.ID, analyst.ID, models.ScheduleConfirmed); err != nil {
		t.Fatalf("confirm near: %v", err)
	}

	closest, err := svc.GetClosestSchedule(analyst.ID)
	if err != nil {
		t.Fatalf("GetClosestSchedule: %v", err)
	}
	if closest.ID != near.ID {
		t.Fatalf("closest schedule = %s, want %s", closest.ID, near.ID)
	}

	if _, err := svc.GetClosestSchedule("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("analyst without schedules should get not found, got %v", err)
	}
}

func TestGetAllSchedulesPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")

	for i := 0; i < 5; i++ {
		if _, err := svc.CreateSchedule(company.ID, testDate(3+i), "09:00", "10:00"); err != nil {
			t.Fatalf("seed schedule %d: %v", i, err)
		}
	}

	page, total, err := svc.GetAllSchedules(1, 2)
	if err != nil {
		t.Fatalf("GetAllSchedules: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}

	last, _, err := svc.GetAllSchedules(3, 2)
	if err != nil {
		t.Fatalf("GetAllSchedules last page: %v", err)
	}
	if len(last) != 1 {
		t.Fatalf("last page size = %d, want 1", len(last))
	}
}

func TestDeleteSchedule(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, newTestConfig())
	company := createCompanyUser(t, db, "acme@test.local")

	schedule, _ := svc.CreateSchedule(company.ID, testDate(3), "09:00", "10:00")
	if err := svc.DeleteSchedule(schedule.ID); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	if err := svc.DeleteSchedule(schedule.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}
