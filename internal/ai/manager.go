package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	Model         string
	EmbedModel    string
	Timeout       int
	MaxInputChars int
}

// Manager binds a provider to the configured chat/embedding models and applies
// the shared timeout policy.
type Manager struct {
	provider IProvider
	cfg      ManagerConfig
}

func NewManager(provider IProvider, cfg ManagerConfig) *Manager {
	return &Manager{provider: provider, cfg: cfg}
}

func (m *Manager) Answer(ctx context.Context, system string, question string) (string, error) {
	if m.provider == nil {
		return "", fmt.Errorf("ai provider not configured")
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	resp, err := m.provider.Generate(ctx, m.cfg.Model, system, question)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.provider == nil {
		return nil, fmt.Errorf("ai provider not configured")
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.provider.Embed(ctx, m.cfg.EmbedModel, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	return m.cfg.EmbedModel
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return context.WithCancel(ctx)
}
