package ws

import (
	"sync"
)

// Registry 维护房间到活动连接的易失性映射。
// 它只负责传输层在场关系，不接触任何持久化状态；
// 空房间在最后一个成员离开时同步回收，不依赖定时器。
type Registry struct {
	rooms map[string]map[*Client]bool // 以roomID为键的连接集合
	mu    sync.RWMutex                // 读写锁保护房间映射
}

// NewRegistry 创建一个新的房间注册表
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Client]bool),
	}
}

// Join 将连接加入房间，房间不存在时创建。
// 返回加入前已在房间内的其他连接，用于通知
func (r *Registry) Join(roomID string, c *Client) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		room = make(map[*Client]bool)
		r.rooms[roomID] = room
	}

	others := make([]*Client, 0, len(room))
	for member := range room {
		if member != c {
			others = append(others, member)
		}
	}
	room[c] = true
	return others
}

// Leave 将连接移出房间。集合变空时整个房间条目被删除。
// 返回该连接此前是否在房间内，以及剩余成员
func (r *Registry) Leave(roomID string, c *Client) (bool, []*Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists || !room[c] {
		return false, nil
	}

	delete(room, c)
	if len(room) == 0 {
		delete(r.rooms, roomID)
		return true, nil
	}

	remaining := make([]*Client, 0, len(room))
	for member := range room {
		remaining = append(remaining, member)
	}
	return true, remaining
}

// RemoveFromAll 把连接从所有房间移除（传输层断开时调用）。
// 一个连接理论上可以同时在多个房间，清理不能假设单房间成员。
// 返回每个受影响房间的剩余成员
func (r *Registry) RemoveFromAll(c *Client) map[string][]*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	affected := make(map[string][]*Client)
	for roomID, room := range r.rooms {
		if !room[c] {
			continue
		}
		delete(room, c)
		if len(room) == 0 {
			delete(r.rooms, roomID)
			affected[roomID] = nil
			continue
		}
		remaining := make([]*Client, 0, len(room))
		for member := range room {
			remaining = append(remaining, member)
		}
		affected[roomID] = remaining
	}
	return affected
}

// Members 返回房间当前全部连接
func (r *Registry) Members(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil
	}
	members := make([]*Client, 0, len(room))
	for member := range room {
		members = append(members, member)
	}
	return members
}

// Peers 返回房间内除exclude以外的连接
func (r *Registry) Peers(roomID string, exclude *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil
	}
	peers := make([]*Client, 0, len(room))
	for member := range room {
		if member != exclude {
			peers = append(peers, member)
		}
	}
	return peers
}

// Find 根据连接ID在房间内查找连接，用于点对点信令转发
func (r *Registry) Find(roomID, peerID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil, false
	}
	for member := range room {
		if member.ID == peerID {
			return member, true
		}
	}
	return nil, false
}

// Count 返回房间当前连接数，房间不存在时返回0
func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// HasRoom 判断房间条目是否存在
func (r *Registry) HasRoom(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.rooms[roomID]
	return exists
}

// UserIDs 返回房间内连接携带的用户ID列表，用于在场快照
func (r *Registry) UserIDs(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil
	}
	ids := make([]string, 0, len(room))
	for member := range room {
		ids = append(ids, member.UserID)
	}
	return ids
}
