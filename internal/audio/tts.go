package audio

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// TTSService converts patient replies to speech via the ElevenLabs API and
// caches the MP3s on disk, so repeated playback of the same reply never
// re-bills the API.
type TTSService struct {
	audioDir string
	apiKey   string
	voiceID  string
	client   *http.Client
}

const ttsRequestTimeout = 15 * time.Second

const elevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech"

var ErrTTSDisabled = errors.New("text-to-speech is not configured")

// NewTTSService creates a new TTS service. An empty apiKey yields a disabled
// service; callers fall back to browser speech synthesis.
func NewTTSService(audioDir, apiKey, voiceID string) *TTSService {
	return &TTSService{
		audioDir: audioDir,
		apiKey:   apiKey,
		voiceID:  voiceID,
		client:   &http.Client{Timeout: ttsRequestTimeout},
	}
}

// IsEnabled reports whether an API key is configured
func (s *TTSService) IsEnabled() bool {
	return s.apiKey != ""
}

// GenerateAudioFile converts text to speech and saves it as MP3.
// Returns the filename (not full path) on success.
func (s *TTSService) GenerateAudioFile(ctx context.Context, text string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrTTSDisabled
	}

	// Patient replies are full sentences, so the cache key is a digest of
	// the voice and text rather than the text itself.
	sum := sha1.Sum([]byte(s.voiceID + "|" + text))
	filename := fmt.Sprintf("patient_%s.mp3", hex.EncodeToString(sum[:]))
	outputPath := filepath.Join(s.audioDir, filename)

	if _, err := os.Stat(outputPath); err == nil {
		return filename, nil
	}

	if err := s.generateUsingElevenLabs(ctx, text, outputPath); err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}

	return filename, nil
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (s *TTSService) generateUsingElevenLabs(ctx context.Context, text, outputPath string) error {
	payload, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s", elevenLabsURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, resp.Body); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return nil
}

// DeleteAudioFile removes a cached audio file
func (s *TTSService) DeleteAudioFile(filename string) error {
	path := filepath.Join(s.audioDir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

// GetAllAudioFiles returns all cached MP3 files
func (s *TTSService) GetAllAudioFiles() ([]string, error) {
	files, err := os.ReadDir(s.audioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory: %w", err)
	}

	var audioFiles []string
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".mp3" {
			audioFiles = append(audioFiles, file.Name())
		}
	}

	return audioFiles, nil
}
