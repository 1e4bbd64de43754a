package config

// mergeAgents merges built-in and user-defined persona configurations.
// User-defined personas override built-ins with the same id.
func mergeAgents(builtinAgents map[string]AgentConfig, userAgents map[string]AgentConfig) map[string]*AgentConfig {
	result := make(map[string]*AgentConfig, len(builtinAgents)+len(userAgents))

	for id, builtin := range builtinAgents {
		agentCopy := builtin
		result[id] = &agentCopy
	}

	for id, userAgent := range userAgents {
		agentCopy := userAgent
		result[id] = &agentCopy
	}

	return result
}
