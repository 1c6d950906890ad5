package models

import (
	"encoding/json"
	"fmt"
)

// SignalType 是WebRTC协商消息的封闭类型集合，
// 取代任意字符串信令类型，绑定时即校验
type SignalType string

const (
	SignalOffer        SignalType = "offer"
	SignalAnswer       SignalType = "answer"
	SignalICECandidate SignalType = "ice-candidate"
)

// ParseSignalType 校验并返回信令类型
func ParseSignalType(s string) (SignalType, error) {
	switch SignalType(s) {
	case SignalOffer, SignalAnswer, SignalICECandidate:
		return SignalType(s), nil
	default:
		return "", fmt.Errorf("unknown signal type: %q", s)
	}
}

// SignalMessage 是房间内两个参与者之间交换的临时信令载荷，
// 只存在于传输层，不落库
type SignalMessage struct {
	Type   SignalType      `json:"type"`
	Signal json.RawMessage `json:"signal"` // SDP或ICE候选，内容对服务端不透明
	From   string          `json:"from,omitempty"`
}
