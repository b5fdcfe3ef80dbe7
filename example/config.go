package main

import (
	"os"

	"github.com/Gurux/gxbuzzer-go"
	"gopkg.in/yaml.v3"
)

type exampleConfig struct {
	Buzzer gxbuzzer.Config `yaml:"buzzer"`
	Bridge bridgeConfig    `yaml:"bridge"`
}

type bridgeConfig struct {
	// Listen is the websocket address, for example :8080. Empty disables the bridge.
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

func defaultConfig() *exampleConfig {
	return &exampleConfig{
		Buzzer: *gxbuzzer.DefaultConfig(),
		Bridge: bridgeConfig{
			Path: "/ws",
		},
	}
}

func loadConfig(path string) (*exampleConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
