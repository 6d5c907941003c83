package handlers

import (
	"fmt"

	"github.com/eldtechnologies/haikunft/internal/models"
)

const (
	msgInvalidBody          = "Bad Request - the request body is not valid JSON."
	msgGenerationFailed     = "Could not get a valid response from the completion service."
	msgStoreNotConfigured   = "mint history is not configured"
	previewCount            = 3
	generateCount           = 1
	defaultVersion          = "0.1.0"
	defaultMintHistoryLimit = 20
)

func alreadyGeneratedMessage(id models.TokenID) string {
	return fmt.Sprintf("Bad Request - haiku #%s was already generated, use /get-ai-prompt to read it.", id)
}

func notGeneratedMessage(id models.TokenID) string {
	return fmt.Sprintf("Bad Request - no haiku has been generated for #%s yet.", id)
}
