package validator

import "github.com/aretw0/ivrflow/pkg/domain"

// Missing names a required config field that is not set.
type Missing struct {
	Field   string
	Message string
}

// MissingFields lists the required fields absent from a block config.
func MissingFields(c domain.Config) []Missing {
	switch cfg := c.(type) {
	case domain.PromptConfig:
		if cfg.Message == "" && cfg.AudioURL == "" {
			return []Missing{{"message", "prompt needs a message or an audioUrl"}}
		}
	case domain.KeyConfig:
		if len(cfg.Options) == 0 {
			return []Missing{{"options", "key block needs at least one option"}}
		}
	case domain.TransferConfig:
		if cfg.Destination == "" {
			return []Missing{{"destination", "transfer needs a destination"}}
		}
	case domain.APIConfig:
		if cfg.APIMock == "" && cfg.Endpoint == "" {
			return []Missing{{"apiMock", "api block needs an apiMock or an endpoint"}}
		}
	case domain.LanguageConfig:
		if len(cfg.Options) == 0 {
			return []Missing{{"options", "language block needs at least one option"}}
		}
	case domain.MenuConfig:
		return summaryOrDestination("menu", cfg.Summary, cfg.Destination)
	case domain.QueueConfig:
		return summaryOrDestination("queue", cfg.Summary, cfg.Destination)
	case domain.VoicemailConfig:
		return summaryOrDestination("voicemail", cfg.Summary, cfg.Destination)
	}
	return nil
}

func summaryOrDestination(block, summary, destination string) []Missing {
	if summary == "" && destination == "" {
		return []Missing{{"summary", block + " needs a summary or a destination"}}
	}
	return nil
}
