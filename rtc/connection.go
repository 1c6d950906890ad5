package rtc

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"topvalidation-http-service/config"
)

// DefaultWebRTCConfig 根据配置构建WebRTC连接参数
func DefaultWebRTCConfig(cfg *config.Config) webrtc.Configuration {
	servers := cfg.STUNServers
	if len(servers) == 0 {
		servers = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: servers},
		},
	}
}

// Connection 封装一个参与者的对等连接及其协商流程。
// 连接失败时重建底层PeerConnection并重新挂载本地轨道，
// 但不自动重新发起offer，由客户端显式驱动下一轮协商
type Connection struct {
	mu     sync.Mutex
	pc     *webrtc.PeerConnection
	cfg    webrtc.Configuration
	peerID string
	closed bool

	// 每次重建递增，被替换的PeerConnection的回调据此失效
	gen uint64

	// 重建连接时需要重新挂载的本地轨道
	localTracks []webrtc.TrackLocal

	onICE   func(webrtc.ICECandidateInit)
	onTrack func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
	onState func(state webrtc.PeerConnectionState)
}

// NewConnection 创建一个新的对等连接封装
func NewConnection(cfg webrtc.Configuration, peerID string) (*Connection, error) {
	c := &Connection{
		cfg:    cfg,
		peerID: peerID,
	}
	if err := c.setupPeerConnection(); err != nil {
		return nil, err
	}
	return c, nil
}

// OnICECandidate 设置本地ICE候选回调
func (c *Connection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onICE = fn
}

// OnTrack 设置远端轨道回调
func (c *Connection) OnTrack(fn func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = fn
}

// OnStateChange 设置连接状态回调
func (c *Connection) OnStateChange(fn func(state webrtc.PeerConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// setupPeerConnection 创建底层PeerConnection并挂载回调。
// 调用方负责持有锁或保证独占访问
func (c *Connection) setupPeerConnection() error {
	pc, err := webrtc.NewPeerConnection(c.cfg)
	if err != nil {
		return err
	}
	c.gen++
	gen := c.gen

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		c.mu.Lock()
		stale := gen != c.gen
		fn := c.onICE
		c.mu.Unlock()
		if stale || fn == nil {
			return
		}
		fn(cand.ToJSON())
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		c.mu.Lock()
		stale := gen != c.gen
		fn := c.onTrack
		c.mu.Unlock()
		if stale {
			return
		}
		config.Info("[RTC] 收到远端轨道: peer=%s kind=%s track=%s", c.peerID, track.Kind(), track.ID())
		if fn != nil {
			fn(track, receiver)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		c.mu.Lock()
		stale := gen != c.gen
		fn := c.onState
		c.mu.Unlock()
		// 被替换的PeerConnection在关闭过程中仍会触发状态回调，直接丢弃
		if stale {
			return
		}
		config.Info("[RTC] 连接状态变化: peer=%s state=%s", c.peerID, state)
		if state == webrtc.PeerConnectionStateFailed {
			// 半自动恢复：重建传输并恢复本地轨道，
			// 新一轮offer/answer由客户端发起
			if err := c.rebuild(); err != nil {
				config.Error("[RTC] 重建连接失败: peer=%s err=%v", c.peerID, err)
			}
		}
		if fn != nil {
			fn(state)
		}
	})

	c.pc = pc
	return nil
}

// rebuild 丢弃失败的PeerConnection，重建并重新挂载本地轨道
func (c *Connection) rebuild() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	if c.pc != nil {
		_ = c.pc.Close()
	}
	if err := c.setupPeerConnection(); err != nil {
		return err
	}
	for _, track := range c.localTracks {
		if _, err := c.pc.AddTrack(track); err != nil {
			return fmt.Errorf("重新挂载本地轨道失败: %w", err)
		}
	}
	config.Info("[RTC] 连接已重建: peer=%s tracks=%d", c.peerID, len(c.localTracks))
	return nil
}

// AddLocalTrack 挂载本地轨道并记录下来，供重建时恢复
func (c *Connection) AddLocalTrack(track webrtc.TrackLocal) (*webrtc.RTPSender, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return nil, err
	}
	c.localTracks = append(c.localTracks, track)
	return sender, nil
}

// CreateOffer 创建本地offer并等待ICE收集完成
func (c *Connection) CreateOffer() (*webrtc.SessionDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}

	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	<-gatherComplete

	return c.pc.LocalDescription(), nil
}

// CreateAnswer 应用远端offer并生成answer
func (c *Connection) CreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}

	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	<-gatherComplete

	return c.pc.LocalDescription(), nil
}

// SetRemoteAnswer 应用远端answer
func (c *Connection) SetRemoteAnswer(answer webrtc.SessionDescription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pc.SetRemoteDescription(answer)
}

// AddICECandidate 添加远端ICE候选
func (c *Connection) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pc.AddICECandidate(candidate)
}

// Close 关闭连接，关闭后不再重建
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.pc != nil {
		return c.pc.Close()
	}
	return nil
}
