package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

type Agent struct {
	client *openai.Client
	model  string
}

func NewAgent(apiKey, model string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(shared.ChatModelGPT4oMini)
	}
	return &Agent{client: &client, model: model}
}

// InterpretNote reads a free-text note ("Asha 2 litres cow milk", "Bala paid 500") and
// proposes one sale or payment. register lists the customers and products the model may use.
func (a *Agent) InterpretNote(ctx context.Context, note, register string, today time.Time) (*EntryProposal, error) {
	prompt := fmt.Sprintf(`You keep the delivery ledger of a home milk delivery business.
Read the operator's note and propose exactly one ledger entry.
Rules:
1. Use ONLY customer and product names from the register below.
2. A delivery is kind "sale" with a quantity; money received is kind "payment" with an amount.
3. Quantities and amounts must be plain decimal strings (e.g. "1.5", "500.00").
4. If the note gives no date, use %s.
5. Provide a confidence score (0.0-1.0) and explain your reasoning.

Register:
%s

Note: %s`, today.Format("2006-01-02"), register, note)

	schemaJSON, err := json.Marshal(generateSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(a.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "ledger_entry_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A proposed sale or payment for the delivery ledger"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}
	return parseProposal(content, today)
}

func parseProposal(content string, today time.Time) (*EntryProposal, error) {
	var proposal EntryProposal
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	proposal.Normalize(today)
	if err := proposal.Validate(); err != nil {
		return nil, fmt.Errorf("proposal validation failed: %w", err)
	}
	return &proposal, nil
}

func generateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&EntryProposal{})
}
