package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/textgraph/pkg/ai"
	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

const (
	// DefaultNodeType is assigned to nodes the model returned without a type.
	DefaultNodeType = "Entity"
	// DefaultEdgeType is assigned to relationships without a type.
	DefaultEdgeType = "RELATED_TO"
)

// DefaultNodeTypes are offered to the model when no node types are configured.
var DefaultNodeTypes = []string{
	"Person", "Organization", "Location", "Event", "Concept", "Product", "Date", "Work",
}

// Extractor turns one span of text into a graph fragment.
type Extractor interface {
	Extract(ctx context.Context, text string) (common.Fragment, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, text string) (common.Fragment, error)

func (f ExtractorFunc) Extract(ctx context.Context, text string) (common.Fragment, error) {
	return f(ctx, text)
}

type extractNode struct {
	ID   string `json:"id" jsonschema_description:"Human-readable identifier of the entity as written in the text"`
	Type string `json:"type" jsonschema_description:"One of the provided node types"`
}

type extractRelationship struct {
	Source string `json:"source" jsonschema_description:"Id of the source node"`
	Target string `json:"target" jsonschema_description:"Id of the target node"`
	Type   string `json:"type" jsonschema_description:"Relationship type in UPPER_SNAKE_CASE"`
}

type extractResponse struct {
	Nodes         []extractNode         `json:"nodes" jsonschema_description:"Entities identified in the text"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships between the identified entities"`
}

// LLMExtractor extracts fragments with a language model.
type LLMExtractor struct {
	client    ai.GraphAIClient
	nodeTypes []string
	opts      []ai.GenerateOption
}

// NewLLMExtractorParams configures an LLMExtractor.
//
// Model overrides the adapter's extraction model when set. NodeTypes
// defaults to DefaultNodeTypes.
type NewLLMExtractorParams struct {
	Client      ai.GraphAIClient
	NodeTypes   []string
	Model       string
	Temperature *float64
}

// NewLLMExtractor returns an Extractor backed by params.Client.
func NewLLMExtractor(params NewLLMExtractorParams) (*LLMExtractor, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("ai client is required")
	}

	nodeTypes := params.NodeTypes
	if len(nodeTypes) == 0 {
		nodeTypes = DefaultNodeTypes
	}

	var opts []ai.GenerateOption
	if params.Model != "" {
		opts = append(opts, ai.WithModel(params.Model))
	}
	if params.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*params.Temperature))
	}

	return &LLMExtractor{
		client:    params.Client,
		nodeTypes: nodeTypes,
		opts:      opts,
	}, nil
}

// Extract asks the model for the nodes and relationships of text.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (common.Fragment, error) {
	types := strings.Join(e.nodeTypes, ", ")
	systemPrompt := fmt.Sprintf(ai.ExtractGraphPrompt, types, types)

	opts := append([]ai.GenerateOption{ai.WithSystemPrompts(systemPrompt)}, e.opts...)

	var res extractResponse
	err := e.client.GenerateCompletionWithFormat(
		ctx,
		"extract_knowledge_graph",
		"Extract nodes and relationships from a provided text.",
		text,
		&res,
		opts...,
	)
	if err != nil {
		return common.Fragment{}, err
	}

	return normalizeResponse(res), nil
}

// normalizeResponse trims ids, drops elements with an empty id and fills
// in default types.
func normalizeResponse(res extractResponse) common.Fragment {
	f := common.Fragment{
		Nodes: make([]common.Node, 0, len(res.Nodes)),
		Edges: make([]common.Edge, 0, len(res.Relationships)),
	}

	for _, n := range res.Nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			continue
		}
		t := strings.TrimSpace(n.Type)
		if t == "" {
			t = DefaultNodeType
		}
		f.Nodes = append(f.Nodes, common.Node{ID: id, Type: t})
	}

	for _, r := range res.Relationships {
		source := strings.TrimSpace(r.Source)
		target := strings.TrimSpace(r.Target)
		if source == "" || target == "" {
			continue
		}
		f.Edges = append(f.Edges, common.Edge{
			Source: source,
			Target: target,
			Type:   relationshipType(r.Type),
		})
	}

	return f
}

func relationshipType(t string) string {
	t = strings.Join(strings.Fields(t), "_")
	if t == "" {
		return DefaultEdgeType
	}
	return strings.ToUpper(t)
}
