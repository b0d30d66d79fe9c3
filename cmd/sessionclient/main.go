// Session test client. Connects to the session WebSocket endpoint, replays
// a scripted transcript stream, and prints the captions and translations
// that come back. The script includes the upstream anomalies the service
// reconciles: a truncated final, a repeated final, and one utterance split
// across two finals.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jkang1643/Exbabel/internal/models"
)

type step struct {
	text    string
	partial bool
	delay   time.Duration
}

var script = []step{
	// Normal utterance: progressive partials, then a final that extends them.
	{text: "good morning", partial: true, delay: 150 * time.Millisecond},
	{text: "good morning everyone", partial: true, delay: 150 * time.Millisecond},
	{text: "good morning everyone welcome to the meeting", partial: false, delay: 300 * time.Millisecond},

	// The recognizer finalizes a shorter span than the last interim result.
	{text: "please remember to submit", partial: true, delay: 150 * time.Millisecond},
	{text: "please remember to submit your timesheets", partial: true, delay: 150 * time.Millisecond},
	{text: "please remember", partial: false, delay: 300 * time.Millisecond},

	// The recognizer repeats an identical finalization.
	{text: "thank you all for coming", partial: false, delay: 150 * time.Millisecond},
	{text: "thank you all for coming", partial: false, delay: 300 * time.Millisecond},

	// One utterance split across two finals sharing a long overlap.
	{text: "we will review the quarterly revenue projections", partial: false, delay: 150 * time.Millisecond},
	{text: "the quarterly revenue projections for the next fiscal year", partial: false, delay: 300 * time.Millisecond},
}

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/v1/session", "Session WebSocket URL")
	sourceLang := flag.String("source", "en", "Source language")
	targetLang := flag.String("target", "es", "Target language")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverURL)

	start := models.SessionStart{SourceLang: *sourceLang, TargetLang: *targetLang}
	if err := conn.WriteJSON(start); err != nil {
		log.Fatalf("failed to send session start: %v", err)
	}

	done := make(chan struct{})
	go readMessages(conn, done)

	for _, s := range script {
		ev := models.TranscriptEvent{
			Text:      s.text,
			IsPartial: s.partial,
			Timestamp: time.Now().UnixMilli(),
		}
		label := "final"
		if s.partial {
			label = "partial"
		}
		log.Printf("-> %s: %q", label, s.text)
		if err := conn.WriteJSON(ev); err != nil {
			log.Fatalf("failed to send event: %v", err)
		}
		time.Sleep(s.delay)
	}

	// Close cleanly; the server flushes deferred commits and drains queued
	// translations before echoing the close frame.
	log.Println("Script finished, closing session...")
	closeFrame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, closeFrame); err != nil {
		log.Fatalf("failed to send close frame: %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Println("Timed out waiting for session close")
	}
}

func readMessages(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		var msg models.OutboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Println("Session closed by server")
			} else {
				log.Printf("Read error: %v", err)
			}
			return
		}

		switch msg.Kind {
		case models.KindTranscript:
			log.Printf("<- [%d] caption: %q", msg.SequenceID, msg.OriginalText)
		case models.KindTranslation:
			if msg.OriginalText != "" {
				log.Printf("<- [%d] translation: %q (from %q)", msg.SequenceID, msg.TranslatedText, msg.OriginalText)
			} else {
				log.Printf("<- [%d] translation: %q", msg.SequenceID, msg.TranslatedText)
			}
		default:
			log.Printf("<- [%d] %s: %+v", msg.SequenceID, msg.Kind, msg)
		}
	}
}
