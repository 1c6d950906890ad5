package rtc

import (
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"topvalidation-http-service/config"
)

// 测试不依赖外部STUN服务，仅用主机候选完成协商
var testConfig = webrtc.Configuration{}

func TestDefaultWebRTCConfig(t *testing.T) {
	cfg := DefaultWebRTCConfig(&config.Config{STUNServers: []string{"stun:stun.example.com:3478"}})
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != "stun:stun.example.com:3478" {
		t.Fatalf("configured STUN server not applied: %+v", cfg.ICEServers)
	}

	fallback := DefaultWebRTCConfig(&config.Config{})
	if len(fallback.ICEServers) != 1 || len(fallback.ICEServers[0].URLs) == 0 {
		t.Fatalf("empty config should fall back to a default STUN server: %+v", fallback.ICEServers)
	}
}

func TestOfferAnswerExchange(t *testing.T) {
	caller, err := NewConnection(testConfig, "caller")
	if err != nil {
		t.Fatalf("NewConnection(caller): %v", err)
	}
	defer caller.Close()

	callee, err := NewConnection(testConfig, "callee")
	if err != nil {
		t.Fatalf("NewConnection(callee): %v", err)
	}
	defer callee.Close()

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "caller-media")
	if err != nil {
		t.Fatalf("NewTrackLocalStaticSample: %v", err)
	}
	if _, err := caller.AddLocalTrack(track); err != nil {
		t.Fatalf("AddLocalTrack: %v", err)
	}

	connected := make(chan struct{}, 2)
	watch := func(c *Connection) {
		c.OnStateChange(func(state webrtc.PeerConnectionState) {
			if state == webrtc.PeerConnectionStateConnected {
				connected <- struct{}{}
			}
		})
	}
	watch(caller)
	watch(callee)

	offer, err := caller.CreateOffer()
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	if offer.Type != webrtc.SDPTypeOffer {
		t.Fatalf("offer type = %s", offer.Type)
	}

	answer, err := callee.CreateAnswer(*offer)
	if err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}
	if answer.Type != webrtc.SDPTypeAnswer {
		t.Fatalf("answer type = %s", answer.Type)
	}

	if err := caller.SetRemoteAnswer(*answer); err != nil {
		t.Fatalf("SetRemoteAnswer: %v", err)
	}

	// ICE候选已内嵌在收集完成的SDP里，主机候选足以在本机连通
	for i := 0; i < 2; i++ {
		select {
		case <-connected:
		case <-time.After(15 * time.Second):
			t.Fatal("peers did not reach the connected state")
		}
	}
}

func TestRebuildSilencesReplacedConnection(t *testing.T) {
	conn, err := NewConnection(testConfig, "peer")
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	defer conn.Close()

	var mu sync.Mutex
	var states []webrtc.PeerConnectionState
	conn.OnStateChange(func(state webrtc.PeerConnectionState) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	conn.mu.Lock()
	old := conn.pc
	conn.mu.Unlock()

	if err := conn.rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	conn.mu.Lock()
	fresh := conn.pc
	conn.mu.Unlock()
	if fresh == old {
		t.Fatal("rebuild must create a fresh peer connection")
	}

	// 旧PeerConnection在关闭过程中仍会触发自身的状态回调，
	// 这些回调不应再穿透到使用方
	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	for _, state := range states {
		if state == webrtc.PeerConnectionStateClosed {
			t.Fatal("state of the replaced peer connection leaked through")
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	conn, err := NewConnection(testConfig, "peer")
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestAddICECandidateRejectsGarbage(t *testing.T) {
	conn, err := NewConnection(testConfig, "peer")
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	defer conn.Close()

	// 未设置远端描述时不能添加候选
	if err := conn.AddICECandidate(webrtc.ICECandidateInit{Candidate: "candidate:garbage"}); err == nil {
		t.Fatal("candidate without a remote description should fail")
	}
}
