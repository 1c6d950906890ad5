package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"topvalidation-http-service/models"
)

// fakeRelay 记录会议服务发起的广播
type fakeRelay struct {
	signals []struct {
		roomID string
		msg    *models.SignalMessage
	}
	endedRooms []string
}

func (f *fakeRelay) BroadcastSignal(roomID string, msg *models.SignalMessage) {
	f.signals = append(f.signals, struct {
		roomID string
		msg    *models.SignalMessage
	}{roomID, msg})
}

func (f *fakeRelay) BroadcastMeetingEnded(roomID string) {
	f.endedRooms = append(f.endedRooms, roomID)
}

// meetingFixture 搭建一条已确认、处于WAITING状态的通话
type meetingFixture struct {
	db       *gorm.DB
	relay    *fakeRelay
	meetings InterfaceMeetingService
	company  *models.User
	analyst  *models.User
	call     *models.VideoCall
}

func newMeetingFixture(t *testing.T) *meetingFixture {
	t.Helper()
	db := newTestDB(t)
	cfg := newTestConfig()
	relay := &fakeRelay{}

	company := createCompanyUser(t, db, "acme@test.local")
	analyst := createAnalystUser(t, db, "analyst@test.local")

	schedules := NewScheduleService(db, cfg)
	schedule, err := schedules.CreateSchedule(company.ID, testDate(3), "09:00", "10:00")
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	confirmed, err := schedules.UpdateScheduleStatus(schedule.ID, analyst.ID, models.ScheduleConfirmed)
	if err != nil {
		t.Fatalf("confirm schedule: %v", err)
	}

	return &meetingFixture{
		db:       db,
		relay:    relay,
		meetings: NewMeetingService(db, cfg, relay, nil, nil),
		company:  company,
		analyst:  analyst,
		call:     confirmed.VideoCall,
	}
}

func TestInitializeMeeting(t *testing.T) {
	f := newMeetingFixture(t)

	call, err := f.meetings.InitializeMeeting(f.analyst.ID)
	if err != nil {
		t.Fatalf("InitializeMeeting: %v", err)
	}
	if call.Status != models.VideoCallConnected {
		t.Fatalf("call status = %s, want CONNECTED", call.Status)
	}
	if call.RoomID != f.call.RoomID {
		t.Fatalf("room = %s, want %s", call.RoomID, f.call.RoomID)
	}
	if call.Schedule == nil {
		t.Fatal("initialized call should carry its schedule")
	}
}

func TestInitializeMeetingPicksOldestWaitingCall(t *testing.T) {
	f := newMeetingFixture(t)

	// 第二条通话，创建时间更晚
	other := createCompanyUser(t, f.db, "later@test.local")
	schedules := NewScheduleService(f.db, newTestConfig())
	schedule, err := schedules.CreateSchedule(other.ID, testDate(4), "09:00", "10:00")
	if err != nil {
		t.Fatalf("create second schedule: %v", err)
	}
	if _, err := schedules.UpdateScheduleStatus(schedule.ID, f.analyst.ID, models.ScheduleConfirmed); err != nil {
		t.Fatalf("confirm second schedule: %v", err)
	}

	call, err := f.meetings.InitializeMeeting(f.analyst.ID)
	if err != nil {
		t.Fatalf("InitializeMeeting: %v", err)
	}
	if call.ID != f.call.ID {
		t.Fatalf("should start the oldest waiting call %s, got %s", f.call.ID, call.ID)
	}
}

func TestInitializeMeetingRequiresAnalyst(t *testing.T) {
	f := newMeetingFixture(t)

	if _, err := f.meetings.InitializeMeeting(f.company.ID); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("company initializing should fail with ErrInvalidRequest, got %v", err)
	}
	if _, err := f.meetings.InitializeMeeting("missing"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("unknown user should fail with ErrInvalidRequest, got %v", err)
	}
}

func TestInitializeMeetingNoWaitingCall(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	analyst := createAnalystUser(t, db, "analyst@test.local")
	meetings := NewMeetingService(db, cfg, nil, nil, nil)

	if _, err := meetings.InitializeMeeting(analyst.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("no waiting call should fail with ErrForbidden, got %v", err)
	}
}

func TestInitializeMeetingSkipsExpiredCalls(t *testing.T) {
	f := newMeetingFixture(t)
	expireCall(t, f)

	if _, err := f.meetings.InitializeMeeting(f.analyst.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expired call must be invisible to initialize, got %v", err)
	}
}

func expireCall(t *testing.T, f *meetingFixture) {
	t.Helper()
	if err := f.db.Model(&models.VideoCall{}).
		Where("id = ?", f.call.ID).
		Update("expired_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire call: %v", err)
	}
}

func TestJoinMeetingWhileWaiting(t *testing.T) {
	f := newMeetingFixture(t)

	result, err := f.meetings.JoinMeeting(f.company.ID, f.call.RoomID)
	if err != nil {
		t.Fatalf("JoinMeeting: %v", err)
	}
	if result.Status != "waiting" {
		t.Fatalf("join before initialize should report waiting, got %s", result.Status)
	}
	if result.Message == "" {
		t.Fatal("waiting result should explain what the client waits for")
	}

	// 加入是只读观察，不推动状态机
	var call models.VideoCall
	if err := f.db.First(&call, "id = ?", f.call.ID).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if call.Status != models.VideoCallWaiting {
		t.Fatalf("join must not change call status, got %s", call.Status)
	}
}

func TestJoinMeetingWhenConnected(t *testing.T) {
	f := newMeetingFixture(t)
	if _, err := f.meetings.InitializeMeeting(f.analyst.ID); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	result, err := f.meetings.JoinMeeting(f.company.ID, f.call.RoomID)
	if err != nil {
		t.Fatalf("JoinMeeting: %v", err)
	}
	if result.Status != "connected" {
		t.Fatalf("join after initialize should report connected, got %s", result.Status)
	}
	if result.VideoCall == nil || result.VideoCall.Status != models.VideoCallConnected {
		t.Fatal("connected result should carry the call details")
	}
}

func TestJoinMeetingOwnership(t *testing.T) {
	f := newMeetingFixture(t)
	stranger := createCompanyUser(t, f.db, "stranger@test.local")

	if _, err := f.meetings.JoinMeeting(stranger.ID, f.call.RoomID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("another company joining should be forbidden, got %v", err)
	}
	if _, err := f.meetings.JoinMeeting(f.analyst.ID, f.call.RoomID); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("analyst using the company join path should fail, got %v", err)
	}
	if _, err := f.meetings.JoinMeeting(f.company.ID, "room_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown room should be not found, got %v", err)
	}
}

func TestJoinMeetingExpired(t *testing.T) {
	f := newMeetingFixture(t)
	expireCall(t, f)

	if _, err := f.meetings.JoinMeeting(f.company.ID, f.call.RoomID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired meeting must read as not found, got %v", err)
	}
}

func TestValidateMeeting(t *testing.T) {
	f := newMeetingFixture(t)

	call, err := f.meetings.ValidateMeeting(f.call.RoomID)
	if err != nil {
		t.Fatalf("ValidateMeeting: %v", err)
	}
	if call.RoomID != f.call.RoomID {
		t.Fatalf("room = %s, want %s", call.RoomID, f.call.RoomID)
	}

	if _, err := f.meetings.ValidateMeeting("room_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown room should be not found, got %v", err)
	}

	expireCall(t, f)
	if _, err := f.meetings.ValidateMeeting(f.call.RoomID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired room should be not found, got %v", err)
	}
}

func TestHandleSignalRequiresConnectedCall(t *testing.T) {
	f := newMeetingFixture(t)
	msg := &models.SignalMessage{Type: models.SignalOffer, Signal: json.RawMessage(`{"sdp":"v=0"}`)}

	// 初始化之前信令一律拒绝
	if err := f.meetings.HandleSignal(f.call.RoomID, msg); !errors.Is(err, ErrNotFound) {
		t.Fatalf("signal before initialize should be not found, got %v", err)
	}
	if len(f.relay.signals) != 0 {
		t.Fatal("rejected signal must not reach the relay")
	}

	if _, err := f.meetings.InitializeMeeting(f.analyst.ID); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := f.meetings.HandleSignal(f.call.RoomID, msg); err != nil {
		t.Fatalf("HandleSignal: %v", err)
	}
	if len(f.relay.signals) != 1 {
		t.Fatalf("relay should see one signal, got %d", len(f.relay.signals))
	}
	if f.relay.signals[0].roomID != f.call.RoomID || f.relay.signals[0].msg.Type != models.SignalOffer {
		t.Fatalf("unexpected relayed signal: %+v", f.relay.signals[0])
	}
}

func TestEndMeeting(t *testing.T) {
	f := newMeetingFixture(t)
	if _, err := f.meetings.InitializeMeeting(f.analyst.ID); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := f.meetings.EndMeeting(f.call.RoomID); err != nil {
		t.Fatalf("EndMeeting: %v", err)
	}

	// 通话和排期在同一事务中到达终态
	var call models.VideoCall
	if err := f.db.First(&call, "id = ?", f.call.ID).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if call.Status != models.VideoCallEnded {
		t.Fatalf("call status = %s, want ENDED", call.Status)
	}
	var schedule models.Schedule
	if err := f.db.First(&schedule, "id = ?", call.ScheduleID).Error; err != nil {
		t.Fatalf("reload schedule: %v", err)
	}
	if schedule.Status != models.ScheduleCompleted {
		t.Fatalf("schedule status = %s, want COMPLETED", schedule.Status)
	}

	if len(f.relay.endedRooms) != 1 || f.relay.endedRooms[0] != f.call.RoomID {
		t.Fatalf("meeting-ended broadcast missing, got %v", f.relay.endedRooms)
	}
}

func TestEndMeetingTwice(t *testing.T) {
	f := newMeetingFixture(t)
	if _, err := f.meetings.InitializeMeeting(f.analyst.ID); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := f.meetings.EndMeeting(f.call.RoomID); err != nil {
		t.Fatalf("first end: %v", err)
	}

	if err := f.meetings.EndMeeting(f.call.RoomID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second end should conflict, got %v", err)
	}
	if len(f.relay.endedRooms) != 1 {
		t.Fatalf("only the first end may broadcast, got %d broadcasts", len(f.relay.endedRooms))
	}
}

func TestEndMeetingBeforeInitialize(t *testing.T) {
	f := newMeetingFixture(t)

	if err := f.meetings.EndMeeting(f.call.RoomID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ending a waiting call should be not found, got %v", err)
	}
	if err := f.meetings.EndMeeting("room_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ending an unknown room should be not found, got %v", err)
	}
}

func TestMeetingLifecycleRoundTrip(t *testing.T) {
	f := newMeetingFixture(t)

	// 企业先到，处于等待
	result, err := f.meetings.JoinMeeting(f.company.ID, f.call.RoomID)
	if err != nil || result.Status != "waiting" {
		t.Fatalf("join while waiting: result=%+v err=%v", result, err)
	}

	// 分析师开始会话
	if _, err := f.meetings.InitializeMeeting(f.analyst.ID); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// 双向协商
	offer := &models.SignalMessage{Type: models.SignalOffer, Signal: json.RawMessage(`{"sdp":"offer"}`)}
	answer := &models.SignalMessage{Type: models.SignalAnswer, Signal: json.RawMessage(`{"sdp":"answer"}`)}
	if err := f.meetings.HandleSignal(f.call.RoomID, offer); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if err := f.meetings.HandleSignal(f.call.RoomID, answer); err != nil {
		t.Fatalf("answer: %v", err)
	}

	// 结束后信令不再被接受
	if err := f.meetings.EndMeeting(f.call.RoomID); err != nil {
		t.Fatalf("end: %v", err)
	}
	ice := &models.SignalMessage{Type: models.SignalICECandidate, Signal: json.RawMessage(`{}`)}
	if err := f.meetings.HandleSignal(f.call.RoomID, ice); !errors.Is(err, ErrNotFound) {
		t.Fatalf("signal after end should be not found, got %v", err)
	}
	if len(f.relay.signals) != 2 {
		t.Fatalf("relay should carry exactly the two accepted signals, got %d", len(f.relay.signals))
	}
}
