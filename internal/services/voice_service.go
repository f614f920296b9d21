package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	voiceTextLimit   = 1000
	voiceCacheTTL    = time.Hour
	elevenLabsAPIURL = "https://api.elevenlabs.io/v1/text-to-speech/%s"
)

var elevenLabsVoiceSettings = map[string]interface{}{
	"stability":        0.5,
	"similarity_boost": 0.75,
}

// VoiceService turns text responses into speech via ElevenLabs and
// keeps the generated audio in an in-memory cache for an hour so the
// client can fetch it by id.
type VoiceService struct {
	apiKey        string
	voiceID       string
	arabicVoiceID string
	client        *http.Client
	cache         *gocache.Cache
}

// NewVoiceService returns nil when the ElevenLabs credentials are not
// set; callers treat a nil service as voice-disabled. arabicVoiceID is
// optional and falls back to the default voice.
func NewVoiceService(apiKey, voiceID, arabicVoiceID string) *VoiceService {
	if apiKey == "" || voiceID == "" {
		log.Println("⚠️  [VOICE] ElevenLabs not configured, voice disabled")
		return nil
	}
	return &VoiceService{
		apiKey:        apiKey,
		voiceID:       voiceID,
		arabicVoiceID: arabicVoiceID,
		client:        &http.Client{Timeout: 30 * time.Second},
		cache:         gocache.New(voiceCacheTTL, 10*time.Minute),
	}
}

// Enabled reports whether speech generation is available.
func (s *VoiceService) Enabled() bool {
	return s != nil
}

// Generate synthesizes speech for the text and caches the audio.
// Returns the id the audio can be fetched under.
func (s *VoiceService) Generate(ctx context.Context, text string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("voice not configured")
	}

	audio, err := s.synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	s.cache.Set(id, audio, voiceCacheTTL)
	log.Printf("🗣️  [VOICE] Generated %d bytes of audio (%s)", len(audio), id)
	return id, nil
}

// Precache generates audio in the background under a known id. Used by
// the think path so the audio is ready when the client asks for it.
func (s *VoiceService) Precache(id, text string) {
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
		defer cancel()
		audio, err := s.synthesize(ctx, text)
		if err != nil {
			log.Printf("⚠️  [VOICE] Pre-cache failed: %v", err)
			return
		}
		s.cache.Set(id, audio, voiceCacheTTL)
	}()
}

// Audio returns cached audio by id. The second return is false when the
// id is unknown or expired.
func (s *VoiceService) Audio(id string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	audio, ok := v.([]byte)
	return audio, ok
}

// pickVoice switches to the Arabic voice, when one is configured, for
// text that is substantially Arabic.
func (s *VoiceService) pickVoice(text string) string {
	if s.arabicVoiceID != "" && countArabicRunes(text) >= arabicRuneThreshold {
		return s.arabicVoiceID
	}
	return s.voiceID
}

func (s *VoiceService) synthesize(ctx context.Context, text string) ([]byte, error) {
	runes := []rune(text)
	if len(runes) > voiceTextLimit {
		text = string(runes[:voiceTextLimit])
	}

	payload, err := json.Marshal(map[string]interface{}{
		"text":           text,
		"model_id":       "eleven_multilingual_v2",
		"voice_settings": elevenLabsVoiceSettings,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(elevenLabsAPIURL, s.pickVoice(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, fmt.Errorf("elevenlabs returned %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned empty audio")
	}
	return audio, nil
}
