package service_registry

import (
	"fmt"

	"github.com/jarbasai/jarbas/services/llm_service"
	"github.com/jarbasai/jarbas/services/vector_service"
)

// ServiceRegistry holds the named provider implementations the gateway can
// be configured to use.
type ServiceRegistry struct {
	llmServices    map[string]llm_service.LLMService
	vectorServices map[string]vector_service.VectorService
}

func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		llmServices:    make(map[string]llm_service.LLMService),
		vectorServices: make(map[string]vector_service.VectorService),
	}
}

// RegisterLLMService registers a new LLM service
func (sr *ServiceRegistry) RegisterLLMService(name string, service llm_service.LLMService) {
	sr.llmServices[name] = service
}

// GetLLMService returns an LLM service by name
func (sr *ServiceRegistry) GetLLMService(name string) (llm_service.LLMService, bool) {
	service, ok := sr.llmServices[name]
	return service, ok
}

// RegisterVectorService registers a new vector store backend
func (sr *ServiceRegistry) RegisterVectorService(name string, service vector_service.VectorService) {
	sr.vectorServices[name] = service
}

// GetVectorService returns a vector store backend by name
func (sr *ServiceRegistry) GetVectorService(name string) (vector_service.VectorService, error) {
	service, ok := sr.vectorServices[name]
	if !ok {
		return nil, fmt.Errorf("unknown vector store: %s", name)
	}
	return service, nil
}
