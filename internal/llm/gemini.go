// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// GeminiConfig holds Gemini client settings.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	// Timeout bounds each request.
	Timeout time.Duration
}

// Gemini implements Model and ToolModel using Google's Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is invalid or missing")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
	}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// Run sends a single prompt.
func (g *Gemini) Run(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI request failed: %w", err)
	}
	return resp.Text(), nil
}

// Generate runs one function-calling turn.
func (g *Gemini) Generate(ctx context.Context, system string, history []Message, tools []ToolSpec) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
		Tools:       []*genai.Tool{{FunctionDeclarations: declarations(tools)}},
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents(history), cfg)
	if err != nil {
		return nil, fmt.Errorf("GenAI request failed: %w", err)
	}

	reply := &Reply{Text: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		reply.Calls = append(reply.Calls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
	}
	return reply, nil
}

func declarations(tools []ToolSpec) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Params))
		required := make([]string, 0, len(t.Params))
		for name, desc := range t.Params {
			props[name] = &genai.Schema{Type: genai.TypeString, Description: desc}
			required = append(required, name)
		}
		sort.Strings(required)
		out = append(out, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required},
		})
	}
	return out
}

// contents converts the conversation to genai turns. Tool results travel as
// function responses in a user turn.
func contents(history []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case RoleModel:
			c := &genai.Content{Role: string(genai.RoleModel)}
			if m.Text != "" {
				c.Parts = append(c.Parts, &genai.Part{Text: m.Text})
			}
			for _, call := range m.Calls {
				c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: call.Args}})
			}
			out = append(out, c)
		case RoleTool:
			c := &genai.Content{Role: string(genai.RoleUser)}
			for _, r := range m.Results {
				c.Parts = append(c.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{ID: r.ID, Name: r.Name, Response: r.Output}})
			}
			out = append(out, c)
		default:
			out = append(out, genai.NewContentFromText(m.Text, genai.RoleUser))
		}
	}
	return out
}
