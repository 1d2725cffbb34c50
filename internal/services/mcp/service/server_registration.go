package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/services/mcp/domain"
)

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(mcpRegistrationTarget) error
}

const (
	mcpCatalogToolsModuleName    = "catalog-tools"
	mcpCatalogResourceModuleName = "catalog-resources"
)

// mcpRegistrationTarget is the subset of *mcp.Server the modules use.
type mcpRegistrationTarget interface {
	AddTool(tool *mcp.Tool, handler any) error
	AddResource(resource *mcp.Resource, handler mcp.ResourceHandler)
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.TranslateInput, domain.TranslateResult](),
	newMCPToolRegistrar[domain.LintInput, domain.LintResult](),
	newMCPToolRegistrar[domain.StatusInput, domain.StatusResult](),
	newMCPToolRegistrar[domain.LocalesInput, domain.LocalesResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func registerCatalogTools(registrar mcpRegistrationTarget, source domain.BundleSource) error {
	if err := registrar.AddTool(domain.TranslateTool(), domain.TranslateHandler(source)); err != nil {
		return err
	}
	if err := registrar.AddTool(domain.LintTool(), domain.LintHandler(source)); err != nil {
		return err
	}
	if err := registrar.AddTool(domain.StatusTool(), domain.StatusHandler(source)); err != nil {
		return err
	}
	return registrar.AddTool(domain.LocalesTool(), domain.LocalesHandler(source))
}

func registerCatalogResources(registrar mcpRegistrationTarget, source domain.BundleSource) {
	registrar.AddResource(domain.StatusResource(), domain.StatusResourceHandler(source))
}

func newMCPRegistrationModules(source domain.BundleSource) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpCatalogToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerCatalogTools(registrar, source)
			},
		},
		{
			name: mcpCatalogResourceModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerCatalogResources(registrar, source)
				return nil
			},
		},
	}
}

func (k mcpRegistrationKind) String() string {
	if k == mcpRegistrationKindResources {
		return "resources"
	}
	return "tools"
}
