// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gateway

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openAISystemPrompt = "You simulate survey respondents. Answer strictly in the JSON format the prompt specifies, with no commentary outside the JSON object."

func (g *Gateway) callOpenAI(ctx context.Context, model, prompt string) (string, error) {
	client := openai.NewClient(g.openAIKey)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: providerModel(BackendOpenAI, model),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
