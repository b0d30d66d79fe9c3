// Audio test client. Streams a WAV file to the session WebSocket endpoint
// as binary frames at real-time pace and prints the captions and
// translations that come back. Run the service with ASR_PROVIDER=mock to
// exercise the pipeline without cloud credentials.
package main

import (
	"encoding/binary"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jkang1643/Exbabel/internal/models"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverURL := flag.String("server", "ws://localhost:8080/v1/session", "Session WebSocket URL")
	sourceLang := flag.String("source", "en", "Source language")
	targetLang := flag.String("target", "es", "Target language")
	chunkMs := flag.Int("chunk-ms", 100, "Milliseconds of audio per frame")
	flag.Parse()

	// Open audio file
	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	// Read and validate WAV header
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	// Extract audio format info
	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}

	// Bytes per frame at real-time pace for this file's format.
	chunkSize := int(sampleRate) * int(numChannels) * int(bitsPerSample) / 8 * *chunkMs / 1000
	if chunkSize <= 0 {
		log.Fatalf("Invalid chunk size for chunk-ms=%d", *chunkMs)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverURL)

	start := models.SessionStart{SourceLang: *sourceLang, TargetLang: *targetLang}
	if err := conn.WriteJSON(start); err != nil {
		log.Fatalf("Failed to send session start: %v", err)
	}

	done := make(chan struct{})
	go readMessages(conn, done)

	// Stream audio in chunks
	audioChunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(audioChunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		if err := conn.WriteMessage(websocket.BinaryMessage, audioChunk[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}

		if chunkNum%50 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		// Simulate real-time streaming
		time.Sleep(time.Duration(*chunkMs) * time.Millisecond)
	}

	elapsed := time.Since(startTime)
	log.Printf("Finished streaming: %d chunks, %d bytes in %v", chunkNum, totalBytes, elapsed)

	// Close cleanly; the server flushes pending finalizations and drains
	// queued translations before echoing the close frame.
	log.Println("Closing session, waiting for final transcripts...")
	closeFrame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, closeFrame); err != nil {
		log.Fatalf("Failed to send close frame: %v", err)
	}

	select {
	case <-done:
	case <-time.After(15 * time.Second):
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
