package discordlog

import (
	"context"
	"log"
	"strings"

	"github.com/vttforge/areatrigger/internal/services/delivery"
	"github.com/vttforge/areatrigger/internal/services/resolution"
	"github.com/vttforge/areatrigger/internal/uuid"
)

// LogNotifier implements delivery.Notifier on the process log. Used by the
// simulator and by sessions running without a Discord connection.
type LogNotifier struct {
	uuidGenerator uuid.Generator
}

// NewLogNotifier creates a log-backed notifier. A nil generator defaults to
// random ids.
func NewLogNotifier(gen uuid.Generator) *LogNotifier {
	if gen == nil {
		gen = uuid.NewGoogleUUIDGenerator()
	}
	return &LogNotifier{uuidGenerator: gen}
}

// PostSummary logs one applied resolution
func (n *LogNotifier) PostSummary(_ context.Context, result *resolution.Result) error {
	var parts []string
	if result.SaveDetail != nil {
		outcome := "failed"
		if result.SaveDetail.Success {
			outcome = "saved"
		}
		parts = append(parts, strings.ToUpper(result.SaveDetail.Ability)+" save "+outcome)
	}
	if result.DamageApplied > 0 {
		parts = append(parts, "damage applied")
	}
	if len(result.GrantedEffects) > 0 {
		parts = append(parts, "granted "+strings.Join(result.GrantedEffects, ", "))
	}
	if result.MacroInvoked {
		parts = append(parts, "macro executed")
	}
	if len(parts) == 0 {
		parts = append(parts, "no effect")
	}

	log.Printf("Table: %s affects %s (%s): %s",
		result.AreaName, result.TargetName, result.Kind, strings.Join(parts, "; "))
	return nil
}

// PostPrompt logs the pending application and mints a control id
func (n *LogNotifier) PostPrompt(_ context.Context, prompt *delivery.Prompt) (string, error) {
	id := n.uuidGenerator.New()
	log.Printf("Table: prompt %s: %s triggers on %s (%s), damage %q, DC %d %s, effects %v",
		id, prompt.AreaName, prompt.TargetTokenID, prompt.Kind,
		prompt.DamageFormula, prompt.SaveDC, prompt.SaveAbility, prompt.EffectRefs)
	return id, nil
}

// DisablePrompt logs the control retirement
func (n *LogNotifier) DisablePrompt(_ context.Context, promptID string, note string) error {
	log.Printf("Table: prompt %s disabled (%s)", promptID, note)
	return nil
}
