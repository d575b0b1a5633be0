package avatar_service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func newTestAvatarService(t *testing.T, handler http.HandlerFunc) (*HuggingFaceAvatarService, *ArtifactStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewArtifactStore(t.TempDir(), time.Hour, logger)
	svc := NewHuggingFaceAvatarService("test-key", "facebook/fastspeech2-en-ljspeech", 5*time.Second, 3, store, logger)
	svc.SetAPIURL(server.URL)
	svc.retryDelay = time.Millisecond
	return svc, store
}

func TestGenerateAvatar(t *testing.T) {
	audio := []byte("RIFFfakewavdata")
	svc, store := newTestAvatarService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(audio)
	})

	resp, err := svc.GenerateAvatar(context.Background(), "A capital da França é Paris.")
	if err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}
	if resp.AvatarURL == "" {
		t.Error("Expected a non-empty avatar URL")
	}

	artifactID, ok := resp.AnimationData["artifact_id"].(string)
	if !ok || artifactID == "" {
		t.Fatal("Expected animation data to carry the artifact id")
	}
	artifact, exists := store.Get(artifactID)
	if !exists {
		t.Fatal("Expected artifact to be registered in the store")
	}

	content, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("Failed to read artifact file: %v", err)
	}
	if string(content) != string(audio) {
		t.Error("Artifact file content does not match synthesized audio")
	}
}

func TestGenerateAvatarRetriesOnModelWarming(t *testing.T) {
	attempts := 0
	svc, _ := newTestAvatarService(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, `{"error":"model is loading"}`, http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("audio"))
	})

	if _, err := svc.GenerateAvatar(context.Background(), "texto"); err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestGenerateAvatarOtherStatusPropagates(t *testing.T) {
	attempts := 0
	svc, _ := newTestAvatarService(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	})

	_, err := svc.GenerateAvatar(context.Background(), "texto")
	if err == nil {
		t.Fatal("Expected an error but got none")
	}
	if attempts != 1 {
		t.Errorf("Expected a single attempt for non-503 failures, got %d", attempts)
	}
	httpErr, ok := err.(*HuggingFaceHttpError)
	if !ok {
		t.Fatalf("Expected a HuggingFaceHttpError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", httpErr.StatusCode)
	}
}

func TestGenerateAvatarExhaustsWarmingRetries(t *testing.T) {
	attempts := 0
	svc, _ := newTestAvatarService(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":"model is loading"}`, http.StatusServiceUnavailable)
	})

	if _, err := svc.GenerateAvatar(context.Background(), "texto"); err == nil {
		t.Fatal("Expected an error after exhausting retries but got none")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}
