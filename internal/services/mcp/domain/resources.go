package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/playbook"
)

const (
	// WorldStateResourceURI addresses the committed world document.
	WorldStateResourceURI = "world://state"
	// PlaybookResourceURI addresses the strategy playbook.
	PlaybookResourceURI = "kingdom://playbook"
)

// WorldStateResource describes the committed world state resource.
func WorldStateResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         WorldStateResourceURI,
		Name:        "world-state",
		Description: "Committed world state document for the kingdom",
		MIMEType:    "application/json",
	}
}

// WorldStateResourceHandler serves the committed world document as JSON.
func WorldStateResourceHandler(lifecycle Lifecycle) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		snap, err := lifecycle.WorldState(ctx)
		if err != nil {
			return nil, fmt.Errorf("read world state: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      WorldStateResourceURI,
					MIMEType: "application/json",
					Text:     string(snap.Document.Pretty()),
				},
			},
		}, nil
	}
}

// PlaybookResource describes the strategy playbook resource.
func PlaybookResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         PlaybookResourceURI,
		Name:        "kingdom-playbook",
		Description: "Strategy playbook for running the kingdom",
		MIMEType:    "application/json",
	}
}

// PlaybookResourceHandler serves the playbook as indented JSON.
func PlaybookResourceHandler(pb playbook.Playbook) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		payload, err := json.MarshalIndent(pb, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode playbook: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      PlaybookResourceURI,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			},
		}, nil
	}
}
