// Package config provides configuration loading for parley.
//
// Configuration is a YAML file with environment variable expansion:
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	database:
//	  path: "~/.local/share/parley/parley.db"
//
//	genai:
//	  base_url: "https://inference.generativeai.example.com/openai/v1"
//	  api_key: "${GENAI_API_KEY}"
//	  conversation_store_id: "store-id"
//	  chat_model: "openai.gpt-4.1"
//	  title_model: "openai.gpt-4.1"
//	  request_timeout: "60s"
//
//	poller:
//	  interval: "2s"
//	  max_attempts: 5
//	  refresh_delays: ["2s", "7s", "17s"]
//
//	logging:
//	  level: "info"
//	  format: "text"
//
// The poller block is deliberately configuration rather than hard-coded
// policy: tests shrink the intervals to milliseconds.
//
// ${VAR} references are expanded from the environment before parsing;
// duration fields accept Go duration strings ("2s", "500ms").
package config
