package config

// 各 provider 的通用 API key 环境变量
var aiKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"azure":  "AZURE_OPENAI_API_KEY",
	"ark":    "ARK_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// AIKeyEnv provider 对应的 API key 环境变量，未知 provider 返回空串
func AIKeyEnv(provider string) string {
	if provider == "" {
		provider = "openai"
	}
	return aiKeyEnv[provider]
}

// DefaultAIProvider 根据已设置的 key 推断默认 provider
// 只设置了 GEMINI_API_KEY 或 ARK_API_KEY 时选对应的 provider，其余情况为 openai
func DefaultAIProvider(lookup func(string) (string, bool)) string {
	has := func(name string) bool {
		v, ok := lookup(name)
		return ok && v != ""
	}
	if has("OPENAI_API_KEY") {
		return "openai"
	}
	switch {
	case has("GEMINI_API_KEY"):
		return "gemini"
	case has("ARK_API_KEY"):
		return "ark"
	}
	return "openai"
}
