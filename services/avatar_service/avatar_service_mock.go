package avatar_service

import (
	"context"

	"github.com/jarbasai/jarbas/chat_type"
)

type MockAvatarService struct {
	GenerateAvatarFunc func(ctx context.Context, text string) (*chat_type.AvatarResponse, error)
	Calls              int
}

func (m *MockAvatarService) GenerateAvatar(ctx context.Context, text string) (*chat_type.AvatarResponse, error) {
	m.Calls++
	if m.GenerateAvatarFunc != nil {
		return m.GenerateAvatarFunc(ctx, text)
	}
	return &chat_type.AvatarResponse{
		AvatarURL:     "/storage/chat/audio/mock.wav",
		AnimationData: map[string]interface{}{"audio_file": "mock.wav"},
	}, nil
}
