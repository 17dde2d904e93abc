package ai

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	DefaultInstruction = "Tu es un assistant client utile. Utilise UNIQUEMENT le contexte ci-dessous pour répondre à la question. Si la réponse n'est pas dans le contexte, dis poliment que tu ne sais pas."

	NoDocumentsAnswer    = "Aucun document n'a encore été indexé pour ce chatbot. Veuillez uploader des documents d'abord."
	TechnicalErrorAnswer = "Je suis désolé, je n'ai pas pu générer une réponse pour le moment."
	NoRelevantAnswer     = "Je n'ai pas trouvé de réponse pertinente dans les documents disponibles."
)

// Generator is the grounded generation call; GeminiClient implements it.
type Generator interface {
	GenerateContent(ctx context.Context, query, store, instruction string) (string, error)
}

// Answerer always returns a user-facing sentence. Failures become one of the
// fixed fallback answers instead of an error.
type Answerer struct {
	gen       Generator
	log       zerolog.Logger
	onFailure func()
}

func NewAnswerer(gen Generator, log zerolog.Logger) *Answerer {
	return &Answerer{gen: gen, log: log.With().Str("component", "answerer").Logger()}
}

func (a *Answerer) OnFailure(fn func()) { a.onFailure = fn }

func (a *Answerer) Generate(ctx context.Context, query, storeID, customInstruction string) string {
	if strings.TrimSpace(storeID) == "" {
		return NoDocumentsAnswer
	}

	instruction := customInstruction
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}

	text, err := a.gen.GenerateContent(ctx, query, storeID, instruction)
	if err != nil {
		a.log.Error().Err(err).Str("store_id", storeID).Msg("generation failed")
		if a.onFailure != nil {
			a.onFailure()
		}
		return TechnicalErrorAnswer
	}
	if text == "" {
		return NoRelevantAnswer
	}
	return text
}
