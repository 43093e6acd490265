// Package config loads the MCP server configuration document.
//
// The document maps server names to launch specifications, in the same
// shape as the mcp.json files used by MCP-aware editors:
//
//	{
//	  "mcpServers": {
//	    "weather": {
//	      "command": "weather-server",
//	      "args": ["--fahrenheit"],
//	      "env": {"WEATHER_API_KEY": "${WEATHER_API_KEY}"}
//	    }
//	  }
//	}
//
// Both JSON and YAML documents are accepted; JSON is parsed through the
// YAML decoder, which preserves key order and rejects duplicate keys.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig describes how to launch and reach one MCP server.
// Loaded once at startup and immutable for the process lifetime.
type ServerConfig struct {
	Name    string            `json:"name" yaml:"-"`
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args"`
	Env     map[string]string `json:"env,omitempty" yaml:"env"`
}

// Config is a parsed configuration document. Servers keeps the order in
// which they appear in the document.
type Config struct {
	Servers []ServerConfig
}

// Server returns the configuration for the named server.
func (c *Config) Server(name string) (ServerConfig, bool) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return ServerConfig{}, false
}

// Load reads and validates the configuration document at path.
// A missing file, a malformed document, a missing mcpServers section, or a
// duplicate server name is a fatal configuration error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configuration file not found: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document from raw bytes.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty configuration document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("configuration root must be a mapping")
	}

	servers := findKey(root, "mcpServers")
	if servers == nil {
		return nil, fmt.Errorf("missing mcpServers section")
	}
	if servers.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("mcpServers must be a mapping of server name to launch spec")
	}

	cfg := &Config{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(servers.Content); i += 2 {
		keyNode, valNode := servers.Content[i], servers.Content[i+1]
		name := keyNode.Value
		if seen[name] {
			return nil, fmt.Errorf("duplicate server name %q (line %d)", name, keyNode.Line)
		}
		seen[name] = true

		var sc ServerConfig
		if err := valNode.Decode(&sc); err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		sc.Name = name
		for k, v := range sc.Env {
			sc.Env[k] = os.ExpandEnv(v)
		}
		cfg.Servers = append(cfg.Servers, sc)
	}

	return cfg, nil
}

// findKey returns the value node for a key in a mapping node, or nil.
func findKey(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
