package stream

import (
	"net/http"
	"sync"

	"github.com/OrderlyNetwork/aden/pkg/logger"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// 客户端请求的消息格式
type subscribeMessage struct {
	Action      string  `json:"action"` // subscribe | unsubscribe
	CampaignIds []int64 `json:"campaign_ids"`
}

// 推送给客户端的消息格式
type pushMessage struct {
	Type       string      `json:"type"` // leaderboard
	CampaignId int64       `json:"campaign_id"`
	Data       interface{} `json:"data"`
}

type ClientConn struct {
	Id   int64
	Conn *websocket.Conn
	Send chan []byte // 异步发送通道
}

// Handler 排行榜实时推送网关
// 客户端按campaign_id订阅，刷新任务每轮把最新首页推给订阅者
type Handler struct {
	mu sync.RWMutex
	// 每个活动对应的订阅客户端集合
	campaignSubscribers map[int64]map[*ClientConn]struct{}
	// 每个连接订阅的活动
	clientCampaigns map[*ClientConn]map[int64]struct{}
	upgrader        websocket.Upgrader
	node            *snowflake.Node
}

func NewHandler() *Handler {
	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Fatalf("snowflake node init failed: %v", err)
	}
	return &Handler{
		campaignSubscribers: make(map[int64]map[*ClientConn]struct{}),
		clientCampaigns:     make(map[*ClientConn]map[int64]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // 允许跨域
		},
		node: node,
	}
}

// ServeWS 升级连接并托管订阅
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("websocket upgrade error: %v", err)
		return
	}
	client := &ClientConn{
		Id:   h.node.Generate().Int64(),
		Conn: conn,
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	h.clientCampaigns[client] = make(map[int64]struct{})
	h.mu.Unlock()

	defer func() {
		h.removeClient(client)
		conn.Close()
	}()

	// 不断从 Send channel 取消息，然后写入 WebSocket
	go client.writePump()
	// 循环读取客户端发来的消息，要求阻塞线程
	client.readPump(h)
}

func (h *Handler) removeClient(client *ClientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if campaigns, ok := h.clientCampaigns[client]; ok {
		for id := range campaigns {
			delete(h.campaignSubscribers[id], client)
			if len(h.campaignSubscribers[id]) == 0 {
				delete(h.campaignSubscribers, id)
			}
		}
		delete(h.clientCampaigns, client)
	}
	close(client.Send)
}

// BroadcastLeaderboard 把最新榜单推给订阅了该活动的连接
// 发送队列满时丢弃，慢连接不能拖住刷新任务
func (h *Handler) BroadcastLeaderboard(campaignId int64, payload interface{}) {
	data, err := json.Marshal(pushMessage{
		Type:       "leaderboard",
		CampaignId: campaignId,
		Data:       payload,
	})
	if err != nil {
		logger.Errorf("leaderboard push marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.campaignSubscribers[campaignId] {
		select {
		case client.Send <- data:
		default:
			logger.Warnf("client %d send queue full, message dropped", client.Id)
		}
	}
}

func (h *Handler) handleOnSubscribe(c *ClientConn, msg *subscribeMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range msg.CampaignIds {
		if id <= 0 {
			continue
		}
		if _, ok := h.campaignSubscribers[id]; !ok {
			h.campaignSubscribers[id] = make(map[*ClientConn]struct{})
		}
		h.campaignSubscribers[id][c] = struct{}{}
		h.clientCampaigns[c][id] = struct{}{}
	}
}

func (h *Handler) handleOnUnsubscribe(c *ClientConn, msg *subscribeMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range msg.CampaignIds {
		if _, ok := h.campaignSubscribers[id]; !ok {
			continue
		}
		delete(h.campaignSubscribers[id], c)
		if len(h.campaignSubscribers[id]) == 0 {
			delete(h.campaignSubscribers, id)
		}
		delete(h.clientCampaigns[c], id)
	}
}

func (c *ClientConn) writePump() {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Warnf("client %d write error: %v", c.Id, err)
			break
		}
	}
}

// readPump 读取客户端消息
func (c *ClientConn) readPump(h *Handler) {
	defer func() {
		logger.Infof("client %d disconnected", c.Id)
	}()
	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg subscribeMessage
		if err := json.Unmarshal(msg, &clientMsg); err != nil {
			logger.Warnf("client %d invalid message: %v", c.Id, err)
			continue
		}

		switch clientMsg.Action {
		case "subscribe":
			h.handleOnSubscribe(c, &clientMsg)
		case "unsubscribe":
			h.handleOnUnsubscribe(c, &clientMsg)
		}
	}
}
