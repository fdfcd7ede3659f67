/*
Package config reads loosely typed YAML or JSON settings documents.

Accessors take a key, or a dotted path into nested sections, and a
default that is returned when the key is missing or holds the wrong type:

	cfg, err := config.FromFile("korli.yaml")
	if err != nil {
	    return err
	}

	port := cfg.String("server.port", "8000")
	keep := cfg.Int("conversation.messages_to_keep", 20)
	llmCfg := cfg.Sub("llm")
	model := llmCfg.String("strong_model", "gpt-4o")

FromFile expands ${NAME} environment references before parsing, so a
file can refer to secrets without containing them.

Config is safe for concurrent reads as long as the source map is not
modified after New.
*/
package config
