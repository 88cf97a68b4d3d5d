package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/outreachkit/outreach-agent-pipeline/pkg/agent"
)

// SenderProfile is the YAML shape of a sender profile file.
type SenderProfile struct {
	Name               string   `yaml:"name"`
	Resume             string   `yaml:"resume"`
	CareerInterest     string   `yaml:"career_interest"`
	KeyAccomplishments []string `yaml:"key_accomplishments"`
}

// LoadSender reads a sender profile file and builds the workflow's Sender.
func LoadSender(path string) (*agent.Sender, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sender profile: %w", err)
	}
	var p SenderProfile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse sender profile: %w", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("sender profile: name is required")
	}
	if strings.TrimSpace(p.Resume) == "" {
		return nil, fmt.Errorf("sender profile: resume is required")
	}
	return agent.NewSender(p.Name, p.Resume, p.CareerInterest, p.KeyAccomplishments), nil
}
