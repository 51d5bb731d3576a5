package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrMissingParameter = errors.New("missing required parameter")
)

// TemplateConfig describes how one prompt kind is delivered.
type TemplateConfig struct {
	SID         string // Twilio Content SID; empty sends free text
	Description string
	Parameters  []string
}

// TemplateSIDs are the Content SIDs configured per prompt kind.
type TemplateSIDs struct {
	Welcome      string `env:"TWILIO_TEMPLATE_WELCOME"`
	Resume       string `env:"TWILIO_TEMPLATE_RESUME"`
	Results      string `env:"TWILIO_TEMPLATE_RESULTS"`
	NoResults    string `env:"TWILIO_TEMPLATE_NO_RESULTS"`
	QueryPrompt  string `env:"TWILIO_TEMPLATE_QUERY_PROMPT"`
	PauseOptions string `env:"TWILIO_TEMPLATE_PAUSE_OPTIONS"`
}

// Templates maps every prompt kind to its delivery config.
type Templates map[gate.Kind]TemplateConfig

// DefaultTemplates builds the registry for the gate prompts.
// plain_text is always free text.
func DefaultTemplates(sids TemplateSIDs) Templates {
	return Templates{
		gate.KindWelcome: {
			SID:         sids.Welcome,
			Description: "Greeting with Start search / Pause buttons",
			Parameters:  []string{gate.VarGreeting},
		},
		gate.KindResume: {
			SID:         sids.Resume,
			Description: "Paused notice with a Resume button",
			Parameters:  []string{gate.VarBody},
		},
		gate.KindResults: {
			SID:         sids.Results,
			Description: "Search results with Query again / Pause buttons",
			Parameters:  []string{gate.VarHeader, gate.VarLines, gate.VarFooter},
		},
		gate.KindNoResults: {
			SID:         sids.NoResults,
			Description: "No matches, with suggestions and Try again / Show examples buttons",
			Parameters:  []string{gate.VarBody, gate.VarSuggestions},
		},
		gate.KindQueryPrompt: {
			SID:         sids.QueryPrompt,
			Description: "Ask for a product query",
			Parameters:  []string{gate.VarPrompt},
		},
		gate.KindPauseOptions: {
			SID:         sids.PauseOptions,
			Description: "Pause 1 hour / Pause indefinitely / Pause forever buttons",
			Parameters:  []string{gate.VarBody},
		},
		gate.KindPlainText: {
			Description: "Free text",
			Parameters:  []string{gate.VarBody},
		},
	}
}

// messageSender is implemented by TwilioService and LogSender.
type messageSender interface {
	SendText(ctx context.Context, to, body string) error
	SendTemplate(ctx context.Context, to, contentSID string, vars map[string]string) error
}

// TemplateService delivers gate prompts, as Content API templates where a SID
// is configured and as free text otherwise.
type TemplateService struct {
	sender    messageSender
	templates Templates
}

// NewTemplateService creates a new template service
func NewTemplateService(sender messageSender, templates Templates) *TemplateService {
	return &TemplateService{sender: sender, templates: templates}
}

// Send delivers the prompt kind to identity.
func (ts *TemplateService) Send(ctx context.Context, kind gate.Kind, identity string, vars map[string]string) error {
	template, exists := ts.templates[kind]
	if !exists {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, kind)
	}

	for _, requiredParam := range template.Parameters {
		if _, ok := vars[requiredParam]; !ok {
			return fmt.Errorf("%w: %s (%s)", ErrMissingParameter, requiredParam, kind)
		}
	}

	if template.SID == "" || kind == gate.KindPlainText {
		return ts.sender.SendText(ctx, identity, renderText(template, vars))
	}

	// Twilio uses {{1}}, {{2}}, etc.
	contentVariables := make(map[string]string, len(template.Parameters))
	for i, paramName := range template.Parameters {
		contentVariables[strconv.Itoa(i+1)] = vars[paramName]
	}
	return ts.sender.SendTemplate(ctx, identity, template.SID, contentVariables)
}

// TemplateInfo returns the delivery config for kind.
func (ts *TemplateService) TemplateInfo(kind gate.Kind) (TemplateConfig, error) {
	template, exists := ts.templates[kind]
	if !exists {
		return TemplateConfig{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, kind)
	}
	return template, nil
}

// renderText joins the non-empty parameters in declaration order.
func renderText(template TemplateConfig, vars map[string]string) string {
	parts := make([]string, 0, len(template.Parameters))
	for _, name := range template.Parameters {
		if v := strings.TrimSpace(vars[name]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n\n")
}
