package service_registry_test

import (
	"context"
	"testing"

	"github.com/jarbasai/jarbas/chat_type"
	"github.com/jarbasai/jarbas/service_registry"
	"github.com/jarbasai/jarbas/services/llm_service"
	"github.com/jarbasai/jarbas/services/vector_service"
)

func TestRegisterAndGetLLMService(t *testing.T) {
	registry := service_registry.NewServiceRegistry()

	mock := &llm_service.MockLLMService{
		GetResponseFunc: func(ctx context.Context, prompt string) (chat_type.LLMResponse, error) {
			return chat_type.LLMResponse{Text: "resposta"}, nil
		},
	}
	registry.RegisterLLMService("mock_service", mock)

	service, ok := registry.GetLLMService("mock_service")
	if !ok {
		t.Fatal("Expected to retrieve registered LLM service")
	}

	resp, err := service.GetResponse(context.Background(), "pergunta")
	if err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}
	if resp.Text != "resposta" {
		t.Errorf("Expected 'resposta', got '%s'", resp.Text)
	}
}

func TestGetUnregisteredLLMService(t *testing.T) {
	registry := service_registry.NewServiceRegistry()
	if _, ok := registry.GetLLMService("unknown"); ok {
		t.Error("Expected lookup of unregistered LLM service to fail")
	}
}

func TestRegisterAndGetVectorService(t *testing.T) {
	registry := service_registry.NewServiceRegistry()
	registry.RegisterVectorService("mock_store", &vector_service.MockVectorService{})

	if _, err := registry.GetVectorService("mock_store"); err != nil {
		t.Fatalf("Expected to retrieve registered vector store, got error: %v", err)
	}
}

func TestGetUnregisteredVectorService(t *testing.T) {
	registry := service_registry.NewServiceRegistry()

	_, err := registry.GetVectorService("unknown_store")
	if err == nil {
		t.Fatal("Expected error when retrieving unregistered vector store, got nil")
	}

	expectedErrorMsg := "unknown vector store: unknown_store"
	if err.Error() != expectedErrorMsg {
		t.Errorf("Expected error '%s', got '%s'", expectedErrorMsg, err.Error())
	}
}
