package handler

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"docvoice/internal/ai"
	"docvoice/internal/app"
	"docvoice/internal/config"
	"docvoice/internal/live"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const liveSystemTemplate = "You are %s, speaking with a visitor over voice.\n%s\n" +
	"Before answering any question about the uploaded documents, you must call " +
	"search_knowledge_base with a focused query and ground your answer in its result."

// liveClientFrame is what the browser sends: base64 16 kHz PCM16 audio, or a
// close request.
type liveClientFrame struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

// liveServerFrame mirrors session events out to the browser. Audio frames
// carry the playback schedule so the client plays them gapless and in order.
type liveServerFrame struct {
	Type       string `json:"type"`
	Audio      string `json:"audio,omitempty"`
	StartAtMS  int64  `json:"start_at_ms,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

type LiveHandler struct {
	dialer          ai.LiveDialer
	chatService     *app.ChatService
	settingsService *app.SettingsService
	audioCfg        config.LiveConfig
}

func NewLiveHandler(dialer ai.LiveDialer, chatService *app.ChatService, settingsService *app.SettingsService, audioCfg config.LiveConfig) *LiveHandler {
	return &LiveHandler{
		dialer:          dialer,
		chatService:     chatService,
		settingsService: settingsService,
		audioCfg:        audioCfg,
	}
}

// Serve bridges one websocket connection onto one live voice session. The
// reader and writer pumps run concurrently; either side closing tears both
// down.
func (h *LiveHandler) Serve(c *gin.Context) {
	conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("live upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	name, policy := h.settingsService.Assistant(ctx)
	session := live.NewSession(h.dialer, h.chatService.SearchKnowledge, live.Config{
		System:           fmt.Sprintf(liveSystemTemplate, name, policy),
		Voice:            h.settingsService.Voice(ctx),
		InputSampleRate:  h.audioCfg.InputSampleRate,
		OutputSampleRate: h.audioCfg.OutputSampleRate,
	})

	if err := session.Open(ctx); err != nil {
		_ = conn.WriteJSON(liveServerFrame{Type: "closed", Reason: "connect failed", Error: err.Error()})
		return
	}
	defer session.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, session)
	}()

	h.readPump(conn, session)
	session.Close()
	<-done
}

func (h *LiveHandler) readPump(conn *websocket.Conn, session *live.Session) {
	for {
		var frame liveClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("live read failed: %v", err)
			}
			return
		}

		switch frame.Type {
		case "audio":
			pcm, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err != nil {
				log.Printf("live audio frame decode failed: %v", err)
				continue
			}
			if !validAudioFrame(len(pcm), h.audioCfg.FrameSamples) {
				log.Printf("live: dropping malformed audio frame of %d bytes", len(pcm))
				continue
			}
			if err := session.SendAudio(pcm); err != nil {
				return
			}
		case "close":
			return
		default:
			log.Printf("live: unknown client frame type %q", frame.Type)
		}
	}
}

// validAudioFrame accepts whole PCM16 frames up to the configured capture
// frame size. Odd-length payloads would shear every later sample in half.
func validAudioFrame(n, frameSamples int) bool {
	if n == 0 || n%2 != 0 {
		return false
	}
	return frameSamples <= 0 || n <= frameSamples*2
}

func (h *LiveHandler) writePump(conn *websocket.Conn, session *live.Session) {
	for ev := range session.Events() {
		switch e := ev.(type) {
		case live.AudioOut:
			frame := liveServerFrame{
				Type:       "audio",
				Audio:      base64.StdEncoding.EncodeToString(e.PCM),
				StartAtMS:  e.StartAt.UnixMilli(),
				DurationMS: e.Duration.Milliseconds(),
			}
			if err := conn.WriteJSON(frame); err != nil {
				session.Close()
				return
			}
		case live.Closed:
			frame := liveServerFrame{Type: "closed", Reason: e.Reason}
			if e.Err != nil {
				frame.Error = e.Err.Error()
			}
			_ = conn.WriteJSON(frame)
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, e.Reason), deadline)
			return
		}
	}
}
